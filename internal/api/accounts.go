package api

import (
	"net/http"

	"tourguide/internal/models"
	"tourguide/internal/service"

	"github.com/gin-gonic/gin"
)

func (h *handler) register(c *gin.Context) {
	var in service.RegisterInput
	if !bindJSON(c, &in) {
		return
	}
	user, token, err := h.svc.Accounts.Register(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": user, "token": token})
}

func (h *handler) me(c *gin.Context) {
	user, err := h.svc.Accounts.Me(c.Request.Context(), principal(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *handler) updateMe(c *gin.Context) {
	var in service.UpdateUserInput
	if !bindJSON(c, &in) {
		return
	}
	user, err := h.svc.Accounts.UpdateMe(c.Request.Context(), principal(c), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *handler) listWilayas(c *gin.Context) {
	wilayas, err := h.svc.Locations.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list(wilayas))
}

func (h *handler) getWilaya(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	w, err := h.svc.Locations.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

func (h *handler) wilayaGuides(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	guides, err := h.svc.Locations.Guides(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list(guides))
}

func (h *handler) wilayaTours(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	tours, err := h.svc.Locations.Tours(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list(tours))
}

func (h *handler) listGuides(c *gin.Context) {
	q := newQuery(c)
	f := models.GuideFilter{
		WilayaID:  q.int64("wilaya"),
		Language:  q.raw("language"),
		MinRating: q.float("min_rating"),
		Search:    q.raw("search"),
		Ordering:  q.raw("ordering"),
	}
	f.Limit, f.Offset = q.page()
	if !q.ok() {
		return
	}
	guides, err := h.svc.Profiles.ListGuides(c.Request.Context(), f)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list(guides))
}

func (h *handler) myGuideProfile(c *gin.Context) {
	g, err := h.svc.Profiles.GetMyGuideProfile(c.Request.Context(), principal(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

func (h *handler) upsertGuideProfile(c *gin.Context) {
	var in service.GuideProfileInput
	if !bindJSON(c, &in) {
		return
	}
	g, err := h.svc.Profiles.UpsertMyGuideProfile(c.Request.Context(), principal(c), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

func (h *handler) setAvailability(c *gin.Context) {
	var in service.AvailabilityInput
	if !bindJSON(c, &in) {
		return
	}
	a, err := h.svc.Profiles.SetAvailability(c.Request.Context(), principal(c), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h *handler) getGuide(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	g, err := h.svc.Profiles.GetGuide(c.Request.Context(), principal(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

func (h *handler) guidePricing(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	pricing, err := h.svc.Profiles.GetGuidePricing(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, pricing)
}

func (h *handler) guideAvailability(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	q := newQuery(c)
	days := q.int("days", 0)
	if !q.ok() {
		return
	}
	calendar, err := h.svc.Profiles.AvailabilityCalendar(c.Request.Context(), id, days)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"guide_id": id, "days": calendar})
}

func (h *handler) setVerification(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in service.VerificationInput
	if !bindJSON(c, &in) {
		return
	}
	g, err := h.svc.Profiles.SetVerification(c.Request.Context(), principal(c), id, in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

func (h *handler) myTouristProfile(c *gin.Context) {
	p, err := h.svc.Profiles.GetMyTouristProfile(c.Request.Context(), principal(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *handler) updateTouristProfile(c *gin.Context) {
	var in service.TouristProfileInput
	if !bindJSON(c, &in) {
		return
	}
	p, err := h.svc.Profiles.UpdateMyTouristProfile(c.Request.Context(), principal(c), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}
