package api

import (
	"net/http"

	"tourguide/internal/service"

	"github.com/gin-gonic/gin"
)

func (h *handler) createReview(c *gin.Context) {
	bookingID, ok := paramID(c, "booking_id")
	if !ok {
		return
	}
	var in service.ReviewInput
	if !bindJSON(c, &in) {
		return
	}
	r, err := h.svc.Reviews.Create(c.Request.Context(), principal(c), bookingID, in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

func (h *handler) tourReviews(c *gin.Context) {
	tourID, ok := paramID(c, "tour_id")
	if !ok {
		return
	}
	q := newQuery(c)
	limit, offset := q.page()
	if !q.ok() {
		return
	}
	reviews, err := h.svc.Reviews.ListForTour(c.Request.Context(), tourID, limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list(reviews))
}

func (h *handler) guideReviews(c *gin.Context) {
	guideID, ok := paramID(c, "guide_id")
	if !ok {
		return
	}
	q := newQuery(c)
	limit, offset := q.page()
	if !q.ok() {
		return
	}
	reviews, err := h.svc.Reviews.ListForGuide(c.Request.Context(), guideID, limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list(reviews))
}

func (h *handler) getReview(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	r, err := h.svc.Reviews.Get(c.Request.Context(), principal(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (h *handler) updateReview(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in service.ReviewUpdate
	if !bindJSON(c, &in) {
		return
	}
	r, err := h.svc.Reviews.Update(c.Request.Context(), principal(c), id, in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (h *handler) respondReview(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in struct {
		Response string `json:"response"`
	}
	if !bindJSON(c, &in) {
		return
	}
	r, err := h.svc.Reviews.Respond(c.Request.Context(), principal(c), id, in.Response)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (h *handler) moderateReview(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in service.ModerationInput
	if !bindJSON(c, &in) {
		return
	}
	r, err := h.svc.Reviews.Moderate(c.Request.Context(), principal(c), id, in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}
