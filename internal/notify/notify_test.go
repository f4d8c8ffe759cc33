package notify

import (
	"errors"
	"strings"
	"testing"

	"github.com/bwmarrin/discordgo"
	slackapi "github.com/slack-go/slack"
	"github.com/sprintwell/sprintwell/internal/config"
	"github.com/sprintwell/sprintwell/internal/health"
	"github.com/sprintwell/sprintwell/internal/models"
)

type mockSlack struct {
	channel string
	texts   []string
	err     error
}

func (m *mockSlack) PostMessage(channelID string, options ...slackapi.MsgOption) (string, string, error) {
	m.channel = channelID
	m.texts = append(m.texts, "sent")
	return "", "", m.err
}

type mockDiscord struct {
	channel string
	content string
	err     error
}

func (m *mockDiscord) ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	m.channel = channelID
	m.content = content
	return nil, m.err
}

func sampleReport() *health.Report {
	return &health.Report{Score: 34, Status: health.StatusPoor}
}

func TestMessageFormat(t *testing.T) {
	got := message("Apollo", sampleReport(), health.StatusGood)
	want := "Project Apollo health changed: good → poor (score 34)"
	if got != want {
		t.Errorf("message = %q, want %q", got, want)
	}
}

func TestSlackPostsToChannel(t *testing.T) {
	mock := &mockSlack{}
	s := &Slack{client: mock, channel: "C123"}

	if err := s.HealthChanged("Apollo", sampleReport(), health.StatusGood); err != nil {
		t.Fatalf("HealthChanged: %v", err)
	}
	if mock.channel != "C123" {
		t.Errorf("channel = %q, want C123", mock.channel)
	}
	if len(mock.texts) != 1 {
		t.Errorf("expected 1 message, got %d", len(mock.texts))
	}
}

func TestSlackErrorWrapped(t *testing.T) {
	mock := &mockSlack{err: errors.New("rate limited")}
	s := &Slack{client: mock, channel: "C123"}

	err := s.HealthChanged("Apollo", sampleReport(), health.StatusGood)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "rate limited") {
		t.Errorf("error %q should wrap the client error", err)
	}
}

func TestDiscordSendsMessage(t *testing.T) {
	mock := &mockDiscord{}
	d := &Discord{session: mock, channel: "987"}

	if err := d.HealthChanged("Apollo", sampleReport(), health.StatusGood); err != nil {
		t.Fatalf("HealthChanged: %v", err)
	}
	if mock.channel != "987" {
		t.Errorf("channel = %q, want 987", mock.channel)
	}
	if !strings.Contains(mock.content, "good → poor") {
		t.Errorf("content = %q, want tier change text", mock.content)
	}
}

type recordingNotifier struct {
	calls int
	err   error
}

func (r *recordingNotifier) HealthChanged(projectName string, report *health.Report, previousTier string) error {
	r.calls++
	return r.err
}

func TestFanoutDeliversToAll(t *testing.T) {
	a := &recordingNotifier{}
	b := &recordingNotifier{}
	f := NewFanout(a, b)

	if err := f.HealthChanged("Apollo", sampleReport(), health.StatusGood); err != nil {
		t.Fatalf("HealthChanged: %v", err)
	}
	if a.calls != 1 || b.calls != 1 {
		t.Errorf("calls = %d, %d, want 1, 1", a.calls, b.calls)
	}
}

func TestFanoutContinuesPastFailure(t *testing.T) {
	failing := &recordingNotifier{err: errors.New("boom")}
	ok := &recordingNotifier{}
	f := NewFanout(failing, ok)

	err := f.HealthChanged("Apollo", sampleReport(), health.StatusGood)
	if err == nil {
		t.Fatal("expected first error to be returned")
	}
	if ok.calls != 1 {
		t.Error("second notifier should still be called after a failure")
	}
}

func TestNewSkipsUnconfiguredChannels(t *testing.T) {
	f, err := New(config.NotifyConfig{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if len(f.notifiers) != 0 {
		t.Errorf("expected no notifiers, got %d", len(f.notifiers))
	}

	f, err = New(config.NotifyConfig{SlackToken: "xoxb-1", SlackChannel: "C1"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if len(f.notifiers) != 1 {
		t.Errorf("expected 1 notifier, got %d", len(f.notifiers))
	}
}

type staticProjects struct {
	projects []models.Project
}

func (s staticProjects) Projects() ([]models.Project, error) { return s.projects, nil }

type scriptedScorer struct {
	reports map[string][]*health.Report
}

func (s *scriptedScorer) Score(projectID string) (*health.Report, error) {
	queue := s.reports[projectID]
	if len(queue) == 0 {
		return nil, errors.New("no report scripted")
	}
	r := queue[0]
	if len(queue) > 1 {
		s.reports[projectID] = queue[1:]
	}
	return r, nil
}

func TestMonitorAlertsOnTierChange(t *testing.T) {
	store := staticProjects{projects: []models.Project{{ID: "prj-1", Name: "Apollo"}}}
	scorer := &scriptedScorer{reports: map[string][]*health.Report{
		"prj-1": {
			{Score: 72, Status: health.StatusGood},
			{Score: 72, Status: health.StatusGood},
			{Score: 34, Status: health.StatusPoor},
		},
	}}
	sink := &recordingNotifier{}
	m := NewMonitor(store, scorer, NewFanout(sink))

	m.Evaluate()
	if sink.calls != 0 {
		t.Fatalf("first evaluation should only set the baseline, got %d alerts", sink.calls)
	}

	m.Evaluate()
	if sink.calls != 0 {
		t.Fatalf("unchanged tier should not alert, got %d alerts", sink.calls)
	}

	m.Evaluate()
	if sink.calls != 1 {
		t.Fatalf("tier change should alert once, got %d alerts", sink.calls)
	}
}
