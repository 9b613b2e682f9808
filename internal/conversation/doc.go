// Package conversation sequences question/answer exchanges for the widget.
//
// # Overview
//
// A Controller owns the transcript and allows one exchange in flight at a
// time. It never paints anything: the presentation surface subscribes to
// render events and calls back into Submit, SubmitSuggestion and
// ClickFollowup.
//
//	ctrl, err := conversation.New(ctx, conversation.Options{
//		Sender:      client,
//		Identity:    ids,
//		Suggestions: cfg.Widget.Suggestions,
//	})
//	events, _ := ctrl.Subscribe(ctx)
//	ctrl.Submit("What are the admission requirements?")
//
// # States
//
// The controller is Idle or AwaitingResponse. Submit is a no-op for blank
// questions and while an exchange is pending, so two racing submits produce
// one exchange and one network call. Every accepted question ends in exactly
// one terminal event and a return to Idle.
//
// # Events
//
// For each accepted question subscribers see, in order:
//
//  1. UserMessageAppended with the question
//  2. PendingStarted with the placeholder text
//  3. One of AnsweredReceived, RateLimitedReceived or FailedReceived
//
// AnsweredReceived carries at most MaxFollowups follow-ups and the ID of the
// chip set they form. Clicking a chip discards its set.
//
// # Teardown
//
// Close cancels the in-flight request and drops whatever it eventually
// returns. Subscriber channels are closed.
package conversation
