package controller

import (
	"context"

	"go.uber.org/zap"

	"github.com/dpshade/promptpad/internal/completion"
	apperrors "github.com/dpshade/promptpad/internal/errors"
)

// Ticket identifies an in-flight completion: the record it was started for
// and the text that was sent.
type Ticket struct {
	ID   int64
	Text string
}

// BeginCompletion checks the preconditions for sending content, then marks
// a request in flight and clears the completion panel. On a precondition
// failure no request may be made and the view carries the message.
func (c *Controller) BeginCompletion(content string) (Ticket, Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.flash = Flash{}
	c.content = content

	if c.inFlight {
		c.flash = Flash{Text: MsgRequestPending, Kind: FlashError}
		return Ticket{}, Result{View: c.view(), Err: apperrors.ConflictError(MsgRequestPending)}
	}

	id, ok := c.coll.SelectedID()
	if !ok {
		c.flash = Flash{Text: MsgSelectToSend, Kind: FlashError}
		return Ticket{}, Result{View: c.view(), Err: apperrors.ValidationError(MsgSelectToSend)}
	}

	text := c.format.Text(content)
	if text == "" {
		c.flash = Flash{Text: MsgNothingToSend, Kind: FlashError}
		return Ticket{}, Result{View: c.view(), Err: apperrors.ValidationError(MsgNothingToSend)}
	}

	c.inFlight = true
	c.completionRaw = ""
	return Ticket{ID: id, Text: text}, Result{View: c.view()}
}

// FinishCompletion records the outcome of the request started by ticket.
// The response is written to the ticket's record even if the selection has
// moved on; the completion panel only changes if it is still selected.
func (c *Controller) FinishCompletion(ticket Ticket, text string, err error) Result {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.inFlight = false
	c.flash = Flash{}

	if err != nil {
		c.log.Warn("completion failed", zap.Int64("id", ticket.ID), zap.Error(err))
		c.flash = Flash{Text: MsgSendFailed, Kind: FlashError}
		if !apperrors.IsAppError(err) {
			err = apperrors.RemoteError("send prompt", err)
		}
		return Result{View: c.view(), Err: err}
	}

	if c.coll.SetResponse(ticket.ID, text) {
		c.persist()
	}
	if c.coll.IsSelected(ticket.ID) {
		c.completionRaw = text
	}
	return Result{View: c.view()}
}

// RequestCompletion runs a whole completion round trip synchronously
func (c *Controller) RequestCompletion(ctx context.Context, content string) Result {
	ticket, res := c.BeginCompletion(content)
	if res.Err != nil {
		return res
	}

	text, err := c.completer.RequestCompletion(ctx, ticket.Text)
	return c.FinishCompletion(ticket, text, err)
}

// Completer returns the client used for completion requests
func (c *Controller) Completer() completion.Requester {
	return c.completer
}
