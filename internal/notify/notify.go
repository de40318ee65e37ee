// Package notify рассылает уведомления о назначениях, запросах помощи и просрочке
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"syncdeck/internal/logger"
	"syncdeck/internal/models/task"
	"syncdeck/internal/models/user"

	"go.uber.org/zap"
)

// Message - письмо одному получателю
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender доставляет готовое письмо
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Notifier собирает письма из событий задач; без Sender только пишет в лог
type Notifier struct {
	sender Sender
}

func New(sender Sender) *Notifier {
	return &Notifier{sender: sender}
}

func (n *Notifier) TaskAssigned(ctx context.Context, t *task.Task, assigner *user.User, assignees []*user.User) error {
	subject := "New task assigned: " + t.Title
	var b strings.Builder
	fmt.Fprintf(&b, "%s assigned you a new task.\n\n", assigner.Username)
	fmt.Fprintf(&b, "Title: %s\nCriticality: %s\n", t.Title, strings.ToUpper(string(t.Criticality)))
	if t.Deadline != nil {
		fmt.Fprintf(&b, "Deadline: %s\n", t.Deadline.UTC().Format("2006-01-02 15:04 MST"))
	}
	if t.Description != "" {
		fmt.Fprintf(&b, "\n%s\n", t.Description)
	}

	return n.deliver(ctx, "task_assigned", t, assignees, subject, b.String())
}

func (n *Notifier) HelpRequested(ctx context.Context, t *task.Task, requester *user.User, heads []*user.User, reason string) error {
	subject := "Help requested: " + t.Title
	body := fmt.Sprintf("%s requested help on task %q.\n\nReason: %s\n", requester.Username, t.Title, reason)
	return n.deliver(ctx, "help_requested", t, heads, subject, body)
}

func (n *Notifier) DeadlinePassed(ctx context.Context, t *task.Task, assignees []*user.User) error {
	subject := "Deadline passed: " + t.Title
	body := fmt.Sprintf("The deadline for task %q has passed. Current progress: %d%%.\n", t.Title, t.Progress)
	return n.deliver(ctx, "deadline_passed", t, assignees, subject, body)
}

func (n *Notifier) deliver(ctx context.Context, event string, t *task.Task, recipients []*user.User, subject, body string) error {
	logger.Info("Notify: Событие",
		zap.String("event", event),
		zap.String("task_id", t.UUID.String()),
		zap.Int("recipients", len(recipients)))

	if n.sender == nil {
		return nil
	}

	var errs []error
	for _, u := range recipients {
		if u.Email == "" {
			continue
		}
		if err := n.sender.Send(ctx, Message{To: u.Email, Subject: subject, Body: body}); err != nil {
			errs = append(errs, fmt.Errorf("отправка %s: %w", u.Email, err))
		}
	}
	return errors.Join(errs...)
}
