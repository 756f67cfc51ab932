package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/devswami/portfolio/internal/api"
	"github.com/devswami/portfolio/internal/config"
	"github.com/devswami/portfolio/internal/contact"
	"github.com/devswami/portfolio/internal/form"
	"github.com/devswami/portfolio/internal/middleware"
)

// maxFormBytes bounds the form-encoded contact body.
const maxFormBytes = 64 << 10

// handleContactSubmit runs a form-encoded submission through the same form
// state machine the CLI uses and re-renders the contact page with the
// result, so the page works without JavaScript.
func (s *Server) handleContactSubmit(w http.ResponseWriter, r *http.Request, route config.Route) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		s.logger.Debug("contact form parse", "error", err, "request_id", middleware.RequestIDFromContext(r.Context()))
	}

	f := form.New(s.formSubmitter(), form.WithBannerTimeout(0))
	for _, field := range contact.Fields {
		f.Change(field, r.PostFormValue(field))
	}

	status := http.StatusOK
	if err := f.Submit(r.Context()); err != nil {
		var vErr *contact.ValidationError
		var apiErr *form.APIError
		switch {
		case errors.As(err, &vErr):
			status = http.StatusBadRequest
		case errors.As(err, &apiErr):
			status = apiErr.StatusCode
		default:
			status = http.StatusInternalServerError
		}
	}

	view := f.View()
	data := s.routeData(route, r.URL.Path)
	data.Form = &view

	body, err := s.pageMgr.Render(route.Page, data)
	if err != nil {
		s.logger.Error("render contact", "error", err)
		s.serveError(w, r, http.StatusInternalServerError)
		return
	}

	header := w.Header()
	header.Set("Content-Type", "text/html; charset=utf-8")
	header.Set("Cache-Control", "no-store, max-age=0")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// formSubmitter hands the form's trimmed values to the contact service and
// maps failures to the messages the JSON endpoint would return.
func (s *Server) formSubmitter() form.Submitter {
	return form.SubmitterFunc(func(ctx context.Context, sub contact.Submission) error {
		if s.deps.Contact == nil {
			s.logger.ErrorContext(ctx, "contact submission failed", "error", "no contact service")
			return &form.APIError{StatusCode: http.StatusInternalServerError, Message: api.MsgSendFailed}
		}

		err := s.deps.Contact.Submit(ctx, sub)
		if err == nil {
			return nil
		}

		var vErr *contact.ValidationError
		if errors.As(err, &vErr) {
			msg := api.MsgInvalidEmail
			if vErr.Missing() {
				msg = api.MsgMissingFields
			}
			return &form.APIError{StatusCode: http.StatusBadRequest, Message: msg}
		}

		s.logger.ErrorContext(ctx, "contact submission failed", "error", err, "cause", errors.Unwrap(err),
			"request_id", middleware.RequestIDFromContext(ctx))
		return &form.APIError{StatusCode: http.StatusInternalServerError, Message: api.MsgSendFailed}
	})
}
