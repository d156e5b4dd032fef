package controllers

import (
	"net/http"

	"github.com/servio-app/servio-backend/api/middleware"
	"github.com/servio-app/servio-backend/api/responses"
	"github.com/servio-app/servio-backend/api/validators"
	"github.com/servio-app/servio-backend/internal/notifications"
	pkgerrors "github.com/servio-app/servio-backend/pkg/errors"
	"github.com/servio-app/servio-backend/pkg/enums"
	"github.com/servio-app/servio-backend/pkg/logger"
	"github.com/servio-app/servio-backend/pkg/pagination"
)

// ListNotifications pages the caller's inbox, newest first.
func ListNotifications(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "notifications service unavailable"))
			return
		}

		recipient, err := actorRecipient(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		unreadOnly, err := validators.ParseQueryBool(r, "unread_only")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.List(r.Context(), notifications.ListParams{
			Recipient:  recipient,
			Limit:      limit,
			Cursor:     r.URL.Query().Get("cursor"),
			UnreadOnly: unreadOnly,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// MarkNotificationRead marks one of the caller's notifications as read.
func MarkNotificationRead(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "notifications service unavailable"))
			return
		}

		recipient, err := actorRecipient(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		notificationID, err := validators.ParseUUIDParam(r, "notificationId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.MarkRead(r.Context(), recipient, notificationID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "read"})
	}
}

// MarkAllNotificationsRead clears the caller's unread set and reports how many
// rows changed.
func MarkAllNotificationsRead(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "notifications service unavailable"))
			return
		}

		recipient, err := actorRecipient(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.MarkAllRead(r.Context(), recipient)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int64{"updated": updated})
	}
}

// actorRecipient resolves the notification inbox for the calling identity.
// A vendor header wins over a user header so vendor staff browsing with both
// see the vendor inbox.
func actorRecipient(r *http.Request) (notifications.Recipient, error) {
	if middleware.VendorIDFromContext(r.Context()) != "" {
		id, err := actorVendorID(r)
		if err != nil {
			return notifications.Recipient{}, err
		}
		return notifications.Recipient{ID: id, Type: enums.RecipientTypeVendor}, nil
	}

	id, err := actorUserID(r)
	if err != nil {
		return notifications.Recipient{}, err
	}
	recipientType := enums.RecipientTypeUser
	if middleware.RoleFromContext(r.Context()) == "admin" {
		recipientType = enums.RecipientTypeAdmin
	}
	return notifications.Recipient{ID: id, Type: recipientType}, nil
}
