package events

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"events-portal/internal/gateway"
	"events-portal/internal/logger"
	"events-portal/internal/models"
	"events-portal/internal/notify"
)

type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) Record(ctx context.Context, entry models.Diagnostic) error {
	args := m.Called(entry)
	return args.Error(0)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishEventChange(ctx context.Context, change models.EventChange) error {
	args := m.Called(change)
	return args.Error(0)
}

func TestFailureRecordsAndNotifies(t *testing.T) {
	recorder := new(MockRecorder)
	var toasts []models.Toast
	r := &Reporter{
		Recorder: recorder,
		Notifier: notify.Func(func(_ context.Context, toast models.Toast) { toasts = append(toasts, toast) }),
	}

	nerr := &gateway.NetworkError{Operation: "delete event", Method: http.MethodDelete, URL: "http://api/events/9", StatusCode: 404, Err: gateway.ErrUnexpectedStatus}
	recorder.On("Record", mock.MatchedBy(func(d models.Diagnostic) bool {
		return d.Operation == "delete event" && d.StatusCode == 404 && d.Target == "http://api/events/9"
	})).Return(nil)

	r.Failure(context.Background(), "DETAIL", "delete event", nerr, "Error deleting event")

	recorder.AssertExpectations(t)
	assert.Equal(t, []models.Toast{models.ErrorToast("Error deleting event")}, toasts)
}

func TestFailureSurvivesRecorderError(t *testing.T) {
	recorder := new(MockRecorder)
	recorder.On("Record", mock.Anything).Return(errors.New("disk full"))
	r := &Reporter{Recorder: recorder}

	assert.NotPanics(t, func() {
		r.Failure(context.Background(), "LIST", "list events", errors.New("boom"), "Error fetching events")
	})
}

func TestSilentFailureLogsOperation(t *testing.T) {
	var out bytes.Buffer
	var toasts []models.Toast
	r := &Reporter{
		Logger:   logger.New(logger.Options{Output: &out, DisableFile: true, NoColor: true}),
		Notifier: notify.Func(func(_ context.Context, toast models.Toast) { toasts = append(toasts, toast) }),
	}

	r.Failure(context.Background(), "DETAIL", "get user", errors.New("not found"), "")

	assert.Contains(t, out.String(), "get user: not found")
	assert.NotContains(t, out.String(), "] : not found")
	assert.Empty(t, toasts)
}

func TestNilReporterIsSafe(t *testing.T) {
	var r *Reporter
	assert.NotPanics(t, func() {
		r.Failure(context.Background(), "LIST", "op", errors.New("boom"), "x")
		r.Success(context.Background(), "LIST", "ok")
		r.Published(context.Background(), models.NewEventChange(models.ChangeCreated, "1", nil))
	})
}

func TestPublishedSwallowsErrors(t *testing.T) {
	publisher := new(MockPublisher)
	publisher.On("PublishEventChange", mock.Anything).Return(errors.New("broker down"))
	r := &Reporter{Publisher: publisher}

	r.Published(context.Background(), models.NewEventChange(models.ChangeDeleted, "3", nil))
	publisher.AssertNumberOfCalls(t, "PublishEventChange", 1)
}

func TestPublishersReachesEveryPublisher(t *testing.T) {
	first := new(MockPublisher)
	second := new(MockPublisher)
	change := models.NewEventChange(models.ChangeCreated, models.ID("7"), nil)
	first.On("PublishEventChange", change).Return(errors.New("broker down"))
	second.On("PublishEventChange", change).Return(nil)

	err := Publishers{first, second}.PublishEventChange(context.Background(), change)

	assert.ErrorContains(t, err, "broker down")
	first.AssertExpectations(t)
	second.AssertExpectations(t)
}
