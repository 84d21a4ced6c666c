// Package events holds what the list and detail synchronizers share: the
// collaborators they report through and the change publisher.
package events

import (
	"context"
	"errors"
	"fmt"

	"events-portal/internal/gateway"
	"events-portal/internal/logger"
	"events-portal/internal/models"
	"events-portal/internal/notify"
)

// Recorder persists diagnostic entries.
type Recorder interface {
	Record(ctx context.Context, entry models.Diagnostic) error
}

// Publisher announces successful mutations.
type Publisher interface {
	PublishEventChange(ctx context.Context, change models.EventChange) error
}

// Reporter turns failures into a log line, a diagnostic row and a toast.
type Reporter struct {
	Logger    *logger.Logger
	Recorder  Recorder
	Notifier  notify.Notifier
	Publisher Publisher
}

func (r *Reporter) logger() *logger.Logger {
	if r == nil || r.Logger == nil {
		return logger.Discard()
	}
	return r.Logger
}

// Failure reports err under category and shows toastTitle to the user. An
// empty toastTitle means a silent failure, logged under the operation name.
func (r *Reporter) Failure(ctx context.Context, category, operation string, err error, toastTitle string) {
	label := toastTitle
	if label == "" {
		label = operation
	}
	r.logger().Error(category, fmt.Sprintf("%s: %v", label, err))
	if r == nil {
		return
	}

	if r.Recorder != nil {
		entry := models.Diagnostic{
			Operation:  operation,
			StatusCode: gateway.StatusCode(err),
			Message:    err.Error(),
		}
		var nerr *gateway.NetworkError
		if errors.As(err, &nerr) {
			entry.Target = nerr.URL
		}
		if recErr := r.Recorder.Record(context.WithoutCancel(ctx), entry); recErr != nil {
			r.logger().Warn("DIAGNOSTICS", fmt.Sprintf("Failed to record diagnostic: %v", recErr))
		}
	}
	if r.Notifier != nil && toastTitle != "" {
		r.Notifier.Notify(ctx, models.ErrorToast(toastTitle))
	}
}

// Success shows a success toast.
func (r *Reporter) Success(ctx context.Context, category, title string) {
	r.logger().Info(category, title)
	if r != nil && r.Notifier != nil {
		r.Notifier.Notify(ctx, models.SuccessToast(title))
	}
}

// Published forwards a change to the publisher. Publishing problems are
// logged and never fail the mutation that caused them.
func (r *Reporter) Published(ctx context.Context, change models.EventChange) {
	if r == nil || r.Publisher == nil {
		return
	}
	if err := r.Publisher.PublishEventChange(context.WithoutCancel(ctx), change); err != nil {
		r.logger().Warn("KAFKA", err.Error())
	}
}

// Publishers sends each change to every publisher in order.
type Publishers []Publisher

func (p Publishers) PublishEventChange(ctx context.Context, change models.EventChange) error {
	var errs []error
	for _, pub := range p {
		if err := pub.PublishEventChange(ctx, change); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
