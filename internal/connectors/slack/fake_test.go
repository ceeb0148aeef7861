package slack

import (
	"context"
	"sync"
	"time"

	slackgo "github.com/slack-go/slack"
)

// fakeAPI is a scripted API. Each method pops the next queued result.
type fakeAPI struct {
	mu sync.Mutex

	teamID string

	channelPages []channelPage
	channelCalls []slackgo.GetConversationsParameters

	historyPages []historyPage
	historyCalls []slackgo.GetConversationHistoryParameters

	replyPages []replyPage
	replyCalls []slackgo.GetConversationRepliesParameters

	users     map[string]*slackgo.User
	userErr   error
	userCalls int

	posted  []postedMessage
	postErr error
}

type channelPage struct {
	channels []slackgo.Channel
	next     string
	err      error
}

type historyPage struct {
	messages []slackgo.Message
	next     string
	err      error
}

type replyPage struct {
	messages []slackgo.Message
	next     string
	err      error
}

type postedMessage struct {
	channelID string
}

func (f *fakeAPI) AuthTestContext(_ context.Context) (*slackgo.AuthTestResponse, error) {
	return &slackgo.AuthTestResponse{TeamID: f.teamID}, nil
}

func (f *fakeAPI) GetConversationsContext(_ context.Context, params *slackgo.GetConversationsParameters) ([]slackgo.Channel, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.channelCalls = append(f.channelCalls, *params)
	p := f.channelPages[0]
	f.channelPages = f.channelPages[1:]
	return p.channels, p.next, p.err
}

func (f *fakeAPI) GetConversationHistoryContext(_ context.Context, params *slackgo.GetConversationHistoryParameters) (*slackgo.GetConversationHistoryResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.historyCalls = append(f.historyCalls, *params)
	p := f.historyPages[0]
	f.historyPages = f.historyPages[1:]
	if p.err != nil {
		return nil, p.err
	}
	resp := &slackgo.GetConversationHistoryResponse{Messages: p.messages}
	resp.ResponseMetaData.NextCursor = p.next
	return resp, nil
}

func (f *fakeAPI) GetConversationRepliesContext(_ context.Context, params *slackgo.GetConversationRepliesParameters) ([]slackgo.Message, bool, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replyCalls = append(f.replyCalls, *params)
	p := f.replyPages[0]
	f.replyPages = f.replyPages[1:]
	return p.messages, p.next != "", p.next, p.err
}

func (f *fakeAPI) GetUserInfoContext(_ context.Context, user string) (*slackgo.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.userCalls++
	if f.userErr != nil {
		return nil, f.userErr
	}
	u, ok := f.users[user]
	if !ok {
		return nil, errUserNotFound
	}
	return u, nil
}

func (f *fakeAPI) PostMessageContext(_ context.Context, channelID string, _ ...slackgo.MsgOption) (string, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.postErr != nil {
		return "", "", f.postErr
	}
	f.posted = append(f.posted, postedMessage{channelID: channelID})
	return channelID, "1.0", nil
}

type slackCodeError string

func (e slackCodeError) Error() string { return string(e) }

const errUserNotFound = slackCodeError("user_not_found")

func msg(ts, user, text, threadTS string) slackgo.Message {
	return slackgo.Message{Msg: slackgo.Msg{
		Timestamp:       ts,
		User:            user,
		Text:            text,
		ThreadTimestamp: threadTS,
	}}
}

func channel(id, name string, member bool) slackgo.Channel {
	ch := slackgo.Channel{IsMember: member}
	ch.ID = id
	ch.Name = name
	return ch
}

// noSleep records requested sleeps without waiting.
type noSleep struct {
	mu     sync.Mutex
	sleeps []time.Duration
}

func (n *noSleep) sleep(ctx context.Context, d time.Duration) error {
	n.mu.Lock()
	n.sleeps = append(n.sleeps, d)
	n.mu.Unlock()
	return ctx.Err()
}

func newTestClient(api *fakeAPI, sleeper *noSleep) *Client {
	return New(api,
		WithRateLimiter(Unlimited()),
		WithRetrier(NewRetrier(sleeper.sleep)),
	)
}
