// internal/handlers/offer.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/artmarket-backend/internal/i18n"
	"github.com/javajoker/artmarket-backend/internal/services"
	"github.com/javajoker/artmarket-backend/internal/utils"
)

type OfferHandler struct {
	offerService *services.OfferService
}

func NewOfferHandler(offerService *services.OfferService) *OfferHandler {
	return &OfferHandler{
		offerService: offerService,
	}
}

// POST /api/bids
func (h *OfferHandler) SubmitOffer(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req services.SubmitOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	// Validate request
	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	offer, err := h.offerService.SubmitOffer(c.Request.Context(), userID, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyOfferSubmitted),
		"offer":   offer,
	})
}

// GET /api/bids/received
func (h *OfferHandler) GetReceivedOffers(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	offers, err := h.offerService.ListReceivedOffers(c.Request.Context(), userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"offers": offers,
		"total":  len(offers),
	})
}

// GET /api/bids/mine
func (h *OfferHandler) GetMyOffers(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	offers, err := h.offerService.ListOffersMade(c.Request.Context(), userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"offers": offers,
		"total":  len(offers),
	})
}

// GET /api/bids/count
func (h *OfferHandler) CountReceivedOffers(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	count, err := h.offerService.CountPendingOffersReceived(c.Request.Context(), userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"count": count,
	})
}

// PUT /api/bids/:id/accept
func (h *OfferHandler) AcceptOffer(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	id, ok := parseIDParam(c, "bid")
	if !ok {
		return
	}

	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	resolution, err := h.offerService.AcceptOffer(c.Request.Context(), id, userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":         i18n.T(lang, i18n.KeyOfferAccepted),
		"offer":           resolution.Offer,
		"rejected_offers": resolution.RejectedOffers,
		"rejected_count":  resolution.RejectedCount,
	})
}

// PUT /api/bids/:id/reject
func (h *OfferHandler) RejectOffer(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	id, ok := parseIDParam(c, "bid")
	if !ok {
		return
	}

	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	resolution, err := h.offerService.RejectOffer(c.Request.Context(), id, userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyOfferRejected),
		"offer":   resolution.Offer,
	})
}
