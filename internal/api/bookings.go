package api

import (
	"bytes"
	"fmt"
	"net/http"

	"tourguide/internal/domain"
	"tourguide/internal/export"
	"tourguide/internal/models"
	"tourguide/internal/service"

	"github.com/gin-gonic/gin"
)

var errDateRequired = domain.Invalid("date", "This query parameter is required (YYYY-MM-DD).")

func (h *handler) listBookings(c *gin.Context) {
	q := newQuery(c)
	f := models.BookingFilter{
		TourID: q.int64("tour"),
		Status: q.raw("status"),
		From:   q.date("from"),
		To:     q.date("to"),
	}
	f.Limit, f.Offset = q.page()
	if !q.ok() {
		return
	}
	bookings, err := h.svc.Bookings.List(c.Request.Context(), principal(c), f)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list(bookings))
}

func (h *handler) createBooking(c *gin.Context) {
	var in service.CreateBookingInput
	if !bindJSON(c, &in) {
		return
	}
	b, err := h.svc.Bookings.Create(c.Request.Context(), principal(c), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

func (h *handler) guidePending(c *gin.Context) {
	bookings, err := h.svc.Bookings.GuidePending(c.Request.Context(), principal(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list(bookings))
}

func (h *handler) touristUpcoming(c *gin.Context) {
	bookings, err := h.svc.Bookings.TouristUpcoming(c.Request.Context(), principal(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list(bookings))
}

func (h *handler) exportBookings(c *gin.Context) {
	q := newQuery(c)
	from, to := q.date("from"), q.date("to")
	if !q.ok() {
		return
	}
	if from == nil || to == nil {
		writeError(c, domain.Invalid("from", "Both from and to dates are required."))
		return
	}
	buf, name, err := h.svc.Bookings.Export(c.Request.Context(), principal(c), *from, *to)
	if err != nil {
		writeError(c, err)
		return
	}
	sendSpreadsheet(c, buf, name)
}

func (h *handler) getBooking(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	b, err := h.svc.Bookings.Get(c.Request.Context(), principal(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *handler) bookingInvoice(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	buf, name, err := h.svc.Bookings.Invoice(c.Request.Context(), principal(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	sendSpreadsheet(c, buf, name)
}

func (h *handler) updateBookingStatus(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in service.StatusUpdateInput
	if !bindJSON(c, &in) {
		return
	}
	b, err := h.svc.Bookings.UpdateStatus(c.Request.Context(), principal(c), id, in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *handler) cancelBooking(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	b, err := h.svc.Bookings.Cancel(c.Request.Context(), principal(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func sendSpreadsheet(c *gin.Context, buf *bytes.Buffer, name string) {
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	c.Data(http.StatusOK, export.ContentType, buf.Bytes())
}
