package slackbot

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	slackgo "github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"

	slackconn "github.com/custodia-labs/slackrag/internal/connectors/slack"
	"github.com/custodia-labs/slackrag/internal/core/domain"
	"github.com/custodia-labs/slackrag/internal/core/ports/driven"
	"github.com/custodia-labs/slackrag/internal/logger"
	"github.com/custodia-labs/slackrag/internal/metrics"
	slacktext "github.com/custodia-labs/slackrag/internal/normalisers/slack"
)

// maxEventBytes caps the size of an inbound event body.
const maxEventBytes = 1 << 20

// retryHeader is set by Slack when it redelivers an event.
const retryHeader = "X-Slack-Retry-Num"

// handleEvents verifies and routes one Events API request.
func (s *Server) handleEvents(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxEventBytes))
	if err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	if err := s.verify(c.Request.Header, body); err != nil {
		logger.Warn("Signature verification failed, check SLACK_SIGNING_SECRET: %v", err)
		c.Status(http.StatusUnauthorized)
		return
	}

	event, err := slackevents.ParseEvent(json.RawMessage(body), slackevents.OptionNoVerifyToken())
	if err != nil {
		logger.Warn("Unparseable event: %v", err)
		c.Status(http.StatusBadRequest)
		return
	}

	switch event.Type {
	case slackevents.URLVerification:
		var challenge slackevents.ChallengeResponse
		if err := json.Unmarshal(body, &challenge); err != nil {
			c.Status(http.StatusBadRequest)
			return
		}
		c.String(http.StatusOK, challenge.Challenge)

	case slackevents.CallbackEvent:
		// Ack first: Slack redelivers anything not acknowledged within 3s.
		c.Status(http.StatusOK)
		if c.GetHeader(retryHeader) != "" {
			logger.Debug("Ignoring redelivered event (retry %s)", c.GetHeader(retryHeader))
			return
		}
		if mention, ok := event.InnerEvent.Data.(*slackevents.AppMentionEvent); ok {
			if mention.BotID != "" {
				return
			}
			s.dispatch(
				func(ctx context.Context) { s.handleMention(ctx, mention) },
				func(ctx context.Context) { s.reply(ctx, mention.Channel, replyThread(mention), domain.ReplyError) },
			)
		}

	default:
		c.Status(http.StatusOK)
	}
}

func (s *Server) verify(header http.Header, body []byte) error {
	verifier, err := slackgo.NewSecretsVerifier(header, s.cfg.SigningSecret)
	if err != nil {
		return err
	}
	if _, err := verifier.Write(body); err != nil {
		return err
	}
	return verifier.Ensure()
}

// handleMention answers a mention in its thread. Every failure is turned
// into a fixed reply so the asker is never left without a response.
func (s *Server) handleMention(ctx context.Context, ev *slackevents.AppMentionEvent) {
	threadTS := replyThread(ev)

	var resolver driven.UserResolver
	if s.newResolver != nil {
		resolver = s.newResolver()
	}

	question := slacktext.Normalise(ctx, slacktext.StripLeadingMention(ev.Text), resolver)
	if question == "" {
		s.reply(ctx, ev.Channel, threadTS, domain.ReplyEmptyQuestion)
		return
	}

	logger.Info("Question in %s from %s", ev.Channel, ev.User)
	answer, err := s.answer.Answer(ctx, ev.Channel, question)
	metrics.Answers.WithLabelValues("slack", metrics.Result(err)).Inc()
	if err != nil {
		logFailure("answer mention", err)
		s.reply(ctx, ev.Channel, threadTS, domain.ReplyError)
		return
	}

	s.reply(ctx, ev.Channel, threadTS, answer.Text)
}

// replyThread is the thread a mention is answered in: its own thread when
// it has one, otherwise a new thread under the mention.
func replyThread(ev *slackevents.AppMentionEvent) string {
	if ev.ThreadTimeStamp != "" {
		return ev.ThreadTimeStamp
	}
	return ev.TimeStamp
}

func (s *Server) reply(ctx context.Context, channelID, threadTS, text string) {
	if err := s.poster.PostReply(ctx, channelID, threadTS, text); err != nil {
		logFailure("post reply", err)
	}
}

// IsExpectedSetupError reports whether err only means the app is not yet
// installed or its token is a placeholder. Such errors are logged at
// debug level instead of error.
func IsExpectedSetupError(err error) bool {
	return slackconn.IsAuthError(err)
}

func logFailure(op string, err error) {
	if IsExpectedSetupError(err) {
		logger.Debug("%s: %v (check SLACK_BOT_TOKEN)", op, err)
		return
	}
	logger.Error("%s: %v", op, err)
}
