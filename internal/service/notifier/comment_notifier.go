package notifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/rgardner/taskflow-api/internal/domain"
	"github.com/rgardner/taskflow-api/internal/store"
)

// mentionPattern matches @-prefixed email-like tokens in comment text, for
// example "@ana@example.com". The captured group is the email address.
var mentionPattern = regexp.MustCompile(`@([A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,})`)

// commentPreviewLength caps the comment excerpt carried in notification
// metadata.
const commentPreviewLength = 140

// notificationCreator is the Creator seam used by the event notifiers.
type notificationCreator interface {
	Create(
		ctx context.Context,
		recipientID, actorID uuid.UUID,
		subject domain.Subject,
		kind domain.EventKind,
		metadata map[string]string,
	) (*domain.Notification, error)
}

// CommentNotifier derives notifications from newly created comments.
type CommentNotifier struct {
	creator notificationCreator
	users   store.UserStore
	logger  *slog.Logger
}

// NewCommentNotifier creates a CommentNotifier.
func NewCommentNotifier(
	creator notificationCreator,
	users store.UserStore,
	logger *slog.Logger,
) *CommentNotifier {
	return &CommentNotifier{
		creator: creator,
		users:   users,
		logger:  logger.With("component", "comment_notifier"),
	}
}

// NotifyCommentCreated creates the notifications a new comment implies:
// one `mention` per distinct resolvable mentioned user other than the actor,
// plus one `comment_added` for the task owner when the owner is not the actor.
// A user who is both mentioned and the owner receives both.
//
// Each creation is independent; a failure for one recipient does not block
// the others. The returned count reflects successful creations and the error,
// if any, joins every individual failure.
func (n *CommentNotifier) NotifyCommentCreated(
	ctx context.Context,
	comment *domain.Comment,
	task *domain.Task,
	actor *domain.User,
) (int, error) {
	metadata := map[string]string{
		"task_id":         task.ID.String(),
		"task_title":      task.Title,
		"comment_preview": previewOf(comment.Body),
		"actor_name":      actor.DisplayName,
	}

	created := 0
	var errs []error

	for _, email := range extractMentions(comment.Body) {
		mentioned, err := n.users.GetByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, store.ErrUserNotFound) {
				n.logger.Debug("mention did not resolve to a user",
					"comment_id", comment.ID,
					"email", email)
				continue
			}
			errs = append(errs, fmt.Errorf("failed to resolve mention %q: %w", email, err))
			continue
		}

		if mentioned.ID == actor.ID {
			continue
		}

		notification, err := n.creator.Create(
			ctx,
			mentioned.ID,
			actor.ID,
			domain.CommentSubject(comment.ID),
			domain.EventKindMention,
			metadata,
		)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to notify mention of %q: %w", email, err))
			continue
		}
		if notification != nil {
			created++
		}
	}

	if task.OwnerID != actor.ID {
		notification, err := n.creator.Create(
			ctx,
			task.OwnerID,
			actor.ID,
			domain.CommentSubject(comment.ID),
			domain.EventKindCommentAdded,
			metadata,
		)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to notify task owner: %w", err))
		} else if notification != nil {
			created++
		}
	}

	return created, errors.Join(errs...)
}

// extractMentions returns the distinct mentioned email addresses in order of
// first appearance, normalized to lower case.
func extractMentions(body string) []string {
	matches := mentionPattern.FindAllStringSubmatch(body, -1)

	seen := make(map[string]bool, len(matches))
	emails := make([]string, 0, len(matches))
	for _, match := range matches {
		email := strings.ToLower(match[1])
		if seen[email] {
			continue
		}
		seen[email] = true
		emails = append(emails, email)
	}
	return emails
}

// previewOf truncates a comment body for notification metadata.
func previewOf(body string) string {
	runes := []rune(body)
	if len(runes) <= commentPreviewLength {
		return body
	}
	return string(runes[:commentPreviewLength]) + "…"
}
