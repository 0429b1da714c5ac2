package bookings

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPStatusFor(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindInvalidArgument, http.StatusBadRequest},
		{KindNotFound, http.StatusNotFound},
		{KindSlotClosed, http.StatusConflict},
		{KindSlotFull, http.StatusConflict},
		{KindAlreadyRegistered, http.StatusConflict},
		{KindPaymentAlreadyUsed, http.StatusConflict},
		{KindInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, httpStatusFor(tt.kind), string(tt.kind))
	}
}

func newBookingTestRouter(t *testing.T, store *memStore) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc := newTestService(t, store, nil, nil)
	controller := NewController(svc)

	engine := gin.New()
	engine.POST("/events/:id/slots/:slotId/bookings", controller.CreateBooking)
	return engine
}

func postBooking(engine *gin.Engine, eventID, slotID uuid.UUID, body interface{}) *httptest.ResponseRecorder {
	payload, _ := json.Marshal(body)
	url := fmt.Sprintf("/events/%s/slots/%s/bookings", eventID, slotID)
	req := httptest.NewRequest(http.MethodPost, url, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	recorder := httptest.NewRecorder()
	engine.ServeHTTP(recorder, req)
	return recorder
}

func TestCreateBookingEndpointSuccessShape(t *testing.T) {
	store := newMemStore()
	eventID := store.addEvent("Pottery Workshop", true)
	slotID := store.addSlot(eventID, "Sat 10:00", 5, 0, false)

	engine := newBookingTestRouter(t, store)

	recorder := postBooking(engine, eventID, slotID, requestFor(eventID, slotID, "CS21B042", "PAY-H-001"))
	require.Equal(t, http.StatusCreated, recorder.Code)

	var body bookingSuccess
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, 4, body.RemainingSeats)

	_, err := uuid.Parse(body.BookingID)
	assert.NoError(t, err, "bookingId must be a UUID")
}

func TestCreateBookingEndpointFailureShape(t *testing.T) {
	store := newMemStore()
	eventID := store.addEvent("Laser Tag Arena", true)
	slotID := store.addSlot(eventID, "Sat 11:00", 1, 1, false)

	engine := newBookingTestRouter(t, store)

	recorder := postBooking(engine, eventID, slotID, requestFor(eventID, slotID, "CS21B042", "PAY-H-002"))
	require.Equal(t, http.StatusConflict, recorder.Code)

	var body bookingFailure
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, KindSlotFull, body.ErrorKind)
	assert.NotEmpty(t, body.Message)
}

func TestCreateBookingEndpointValidation(t *testing.T) {
	store := newMemStore()
	eventID := store.addEvent("Robotics 101", true)
	slotID := store.addSlot(eventID, "Sun 09:00", 5, 0, false)

	engine := newBookingTestRouter(t, store)

	req := requestFor(eventID, slotID, "12345", "PAY-H-003")
	recorder := postBooking(engine, eventID, slotID, req)
	require.Equal(t, http.StatusBadRequest, recorder.Code)

	var body bookingFailure
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	assert.Equal(t, KindInvalidArgument, body.ErrorKind)
	assert.Contains(t, body.Message, "participant.rollNumber")

	// Nothing was written.
	bookingCount, _, _, _ := store.snapshot()
	assert.Zero(t, bookingCount)
}

func TestCreateBookingEndpointUsesPathParams(t *testing.T) {
	store := newMemStore()
	eventID := store.addEvent("Pottery Workshop", true)
	slotID := store.addSlot(eventID, "Sat 10:00", 5, 0, false)

	engine := newBookingTestRouter(t, store)

	// Body carries different IDs; the path must win.
	body := requestFor(uuid.New(), uuid.New(), "CS21B042", "PAY-H-004")
	recorder := postBooking(engine, eventID, slotID, body)
	assert.Equal(t, http.StatusCreated, recorder.Code)
}
