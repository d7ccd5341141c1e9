package handlers

import (
	"errors"
	"net/http"

	"auction-marketplace/internal/domain"
	"auction-marketplace/internal/services"
	"auction-marketplace/pkg/logger"

	"github.com/labstack/echo/v4"
)

// AuctionHandler adapts the HTTP surface onto the lifecycle engine.
// Authentication is upstream; the bearer credential only resolves the
// acting user through the ledger.
type AuctionHandler struct {
	engine *services.Engine
	ledger domain.UserLedger
	log    logger.Logger
}

func NewAuctionHandler(engine *services.Engine, ledger domain.UserLedger, log logger.Logger) *AuctionHandler {
	return &AuctionHandler{engine: engine, ledger: ledger, log: log}
}

func (h *AuctionHandler) Register(g *echo.Group) {
	g.POST("/auctions", h.CreateAuction)
	g.GET("/auctions", h.ListOpenAuctions)
	g.GET("/auctions/:id", h.GetAuction)
	g.POST("/auctions/:id/bids", h.PlaceBid)
	g.POST("/auctions/:id/buy-now", h.BuyNow)
	g.GET("/users/:id/purchases", h.GetPurchased)
	g.GET("/users/:id/sales", h.GetSold)
	g.GET("/me", h.GetCurrentUser)
}

type CreateAuctionRequest struct {
	ItemID        string  `json:"item_id"`
	StartingPrice float64 `json:"starting_price"`
	BuyNowPrice   float64 `json:"buy_now_price"`
	DurationHours int     `json:"duration_hours"`
}

type PlaceBidRequest struct {
	Amount float64 `json:"amount"`
}

type BidResult struct {
	Accepted bool `json:"accepted"`
}

func (h *AuctionHandler) CreateAuction(c echo.Context) error {
	actor, ok := h.actor(c)
	if !ok {
		return nil
	}

	var req CreateAuctionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errBody("invalid request body"))
	}

	auction, err := h.engine.CreateAuction(c.Request().Context(), actor.ID, services.CreateAuctionInput{
		ItemID:        req.ItemID,
		StartingPrice: req.StartingPrice,
		BuyNowPrice:   req.BuyNowPrice,
		DurationHours: req.DurationHours,
	})
	if err != nil {
		return h.mapError(c, err)
	}

	return c.JSON(http.StatusCreated, auction)
}

func (h *AuctionHandler) ListOpenAuctions(c echo.Context) error {
	auctions, err := h.engine.ListOpenAuctions(c.Request().Context())
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(http.StatusOK, auctions)
}

func (h *AuctionHandler) GetAuction(c echo.Context) error {
	auction, err := h.engine.GetAuctionByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(http.StatusOK, auction)
}

func (h *AuctionHandler) PlaceBid(c echo.Context) error {
	actor, ok := h.actor(c)
	if !ok {
		return nil
	}

	var req PlaceBidRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errBody("invalid request body"))
	}

	accepted, err := h.engine.PlaceBid(c.Request().Context(), c.Param("id"), actor.ID, req.Amount)
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(http.StatusOK, BidResult{Accepted: accepted})
}

func (h *AuctionHandler) BuyNow(c echo.Context) error {
	actor, ok := h.actor(c)
	if !ok {
		return nil
	}

	accepted, err := h.engine.BuyNow(c.Request().Context(), c.Param("id"), actor.ID)
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(http.StatusOK, BidResult{Accepted: accepted})
}

func (h *AuctionHandler) GetPurchased(c echo.Context) error {
	auctions, err := h.engine.GetPurchasedAuctions(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(http.StatusOK, auctions)
}

func (h *AuctionHandler) GetSold(c echo.Context) error {
	auctions, err := h.engine.GetSoldAuctions(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(http.StatusOK, auctions)
}

func (h *AuctionHandler) GetCurrentUser(c echo.Context) error {
	actor, ok := h.actor(c)
	if !ok {
		return nil
	}
	return c.JSON(http.StatusOK, actor)
}

// actor resolves the acting user from the bearer credential. When ok
// is false the error response has already been written.
func (h *AuctionHandler) actor(c echo.Context) (*domain.User, bool) {
	credential := bearerToken(c)
	if credential == "" {
		_ = c.JSON(http.StatusUnauthorized, errBody("credential required"))
		return nil, false
	}

	user, err := h.ledger.FindByIdentity(c.Request().Context(), credential)
	if err != nil {
		_ = h.mapError(c, err)
		return nil, false
	}
	if user == nil {
		_ = c.JSON(http.StatusUnauthorized, errBody("unknown credential"))
		return nil, false
	}
	return user, true
}

func (h *AuctionHandler) mapError(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrOwnership), errors.Is(err, domain.ErrSelfBid):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrUnavailable), errors.Is(err, domain.ErrBuyNowRequired):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrInsufficientFunds):
		status = http.StatusPaymentRequired
	default:
		h.log.Error("Unhandled engine error", "error", err)
		return c.JSON(status, errBody("internal error"))
	}
	return c.JSON(status, errBody(err.Error()))
}

func bearerToken(c echo.Context) string {
	const prefix = "Bearer "
	auth := c.Request().Header.Get(echo.HeaderAuthorization)
	if len(auth) > len(prefix) && auth[:len(prefix)] == prefix {
		return auth[len(prefix):]
	}
	return ""
}

func errBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}
