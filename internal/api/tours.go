package api

import (
	"net/http"

	"tourguide/internal/models"
	"tourguide/internal/service"

	"github.com/gin-gonic/gin"
)

func tourFilter(q *queryParams) models.TourFilter {
	f := models.TourFilter{
		WilayaID:     q.int64("wilaya"),
		Status:       q.raw("status"),
		Query:        q.raw("q"),
		MinPrice:     q.float("min_price"),
		MaxPrice:     q.float("max_price"),
		MinDuration:  q.float("min_duration"),
		MaxDuration:  q.float("max_duration"),
		MinGroupSize: q.int("group_size", 0),
		MinRating:    q.float("min_rating"),
		Ordering:     q.raw("ordering"),
	}
	if f.Query == "" {
		f.Query = q.raw("search")
	}
	f.Limit, f.Offset = q.page()
	return f
}

func (h *handler) listTours(c *gin.Context) {
	q := newQuery(c)
	f := tourFilter(q)
	f.GuideID = q.int64("guide")
	if !q.ok() {
		return
	}
	tours, err := h.svc.Tours.List(c.Request.Context(), f)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list(tours))
}

func (h *handler) myTours(c *gin.Context) {
	q := newQuery(c)
	f := tourFilter(q)
	if !q.ok() {
		return
	}
	tours, err := h.svc.Tours.ListMine(c.Request.Context(), principal(c), f)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list(tours))
}

func (h *handler) createTour(c *gin.Context) {
	var in service.TourInput
	if !bindJSON(c, &in) {
		return
	}
	t, err := h.svc.Tours.Create(c.Request.Context(), principal(c), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

func (h *handler) dashboard(c *gin.Context) {
	d, err := h.svc.Tours.Dashboard(c.Request.Context(), principal(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *handler) getTour(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	t, err := h.svc.Tours.Get(c.Request.Context(), principal(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *handler) updateTour(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in service.TourUpdate
	if !bindJSON(c, &in) {
		return
	}
	t, err := h.svc.Tours.Update(c.Request.Context(), principal(c), id, in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *handler) deleteTour(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Tours.Delete(c.Request.Context(), principal(c), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handler) calculatePrice(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	q := newQuery(c)
	size := q.int("group_size", 1)
	if !q.ok() {
		return
	}
	quote, err := h.svc.Tours.CalculatePrice(c.Request.Context(), principal(c), id, size)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, quote)
}

func (h *handler) tourWeather(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	q := newQuery(c)
	date := q.date("date")
	if !q.ok() {
		return
	}
	if date == nil {
		writeError(c, errDateRequired)
		return
	}
	forecast, err := h.svc.Tours.Weather(c.Request.Context(), principal(c), id, *date)
	if err != nil {
		writeError(c, err)
		return
	}
	if forecast == nil {
		c.JSON(http.StatusOK, gin.H{"tour_id": id, "date": date, "weather": nil, "message": "No forecast available for this date."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tour_id": id, "date": date, "weather": forecast})
}
