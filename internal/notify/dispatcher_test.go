package notify

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskdesk/internal/domain/models"
)

type recordingMailer struct {
	mu      sync.Mutex
	sent    []Message
	fail    map[string]bool
	release chan struct{}
}

func (m *recordingMailer) Send(msg Message) error {
	if m.release != nil {
		<-m.release
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail[msg.To] {
		return errors.New("smtp down")
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *recordingMailer) recipients() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var to []string
	for _, msg := range m.sent {
		to = append(to, msg.To)
	}
	return to
}

func TestDispatcherDeliversAndSurvivesFailures(t *testing.T) {
	mailer := &recordingMailer{fail: map[string]bool{"bad@example.com": true}}
	d := NewDispatcher(mailer, zerolog.Nop(), DispatcherConfig{Workers: 2, QueueSize: 10})

	d.Notify(Message{Kind: KindTaskAssigned, To: "a@example.com"})
	d.Notify(Message{Kind: KindTaskAssigned, To: "bad@example.com"})
	d.Notify(Message{Kind: KindTaskAssigned, To: "b@example.com"})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, d.Close(ctx))

	assert.ElementsMatch(t, []string{"a@example.com", "b@example.com"}, mailer.recipients())
}

func TestDispatcherNotifyNeverBlocks(t *testing.T) {
	mailer := &recordingMailer{release: make(chan struct{})}
	d := NewDispatcher(mailer, zerolog.Nop(), DispatcherConfig{Workers: 1, QueueSize: 1})

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			d.Notify(Message{Kind: KindWelcome, To: "x@example.com"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Notify blocked on a stalled mailer")
	}

	close(mailer.release)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, d.Close(ctx))
	assert.LessOrEqual(t, len(mailer.recipients()), 2)
}

func TestDispatcherDropsAfterClose(t *testing.T) {
	mailer := &recordingMailer{}
	d := NewDispatcher(mailer, zerolog.Nop(), DispatcherConfig{})
	require.NoError(t, d.Close(context.Background()))

	d.Notify(Message{Kind: KindWelcome, To: "late@example.com"})
	require.NoError(t, d.Close(context.Background()))
	assert.Empty(t, mailer.recipients())
}

func TestTemplates(t *testing.T) {
	tpl := NewTemplates("https://tasks.example.com")
	deadline := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

	msg, err := tpl.TaskAssigned(
		models.UserRef{ID: "s1", Name: "Sam <script>", Email: "sam@example.com"},
		models.Task{Title: "Audit", Priority: models.PriorityHigh, Deadline: deadline},
	)
	require.NoError(t, err)
	assert.Equal(t, KindTaskAssigned, msg.Kind)
	assert.Equal(t, "sam@example.com", msg.To)
	assert.Equal(t, "New Task Assigned: Audit", msg.Subject)
	assert.Contains(t, msg.HTML, "Mar 14, 2026")
	assert.Contains(t, msg.HTML, "No description")
	assert.Contains(t, msg.HTML, "https://tasks.example.com/")
	assert.NotContains(t, msg.HTML, "<script>")

	msg, err = tpl.A3Completed(
		models.User{Name: "Boss", Email: "boss@example.com"},
		models.A3Item{Name: "Printer", Amount: decimal.RequireFromString("120.5")},
		models.Identity{Name: "Sam"},
		"paid",
	)
	require.NoError(t, err)
	assert.Contains(t, msg.HTML, "120.50")
	assert.Contains(t, msg.HTML, "paid")
	assert.Contains(t, msg.HTML, "Sam")
}

func TestSMTPMailerBuildsMessage(t *testing.T) {
	m := NewSMTPMailer(SMTPConfig{
		Host:     "smtp.example.com",
		Port:     587,
		Username: "bot@example.com",
		Password: "pw",
		FromName: "Task Management System",
	})

	var gotAddr, gotFrom string
	var gotTo []string
	var gotBody []byte
	m.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotBody = addr, from, to, msg
		return nil
	}

	err := m.Send(Message{To: "sam@example.com", Subject: "Hi\r\nBcc: evil@example.com", HTML: "<p>x</p>"})
	require.NoError(t, err)

	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.Equal(t, "bot@example.com", gotFrom)
	assert.Equal(t, []string{"sam@example.com"}, gotTo)
	body := string(gotBody)
	assert.Contains(t, body, "Content-Type: text/html; charset=UTF-8")
	assert.Contains(t, body, "Subject: Hi  Bcc: evil@example.com\r\n")
	assert.True(t, strings.HasSuffix(body, "\r\n\r\n<p>x</p>"))
}
