package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"taskdesk/internal/domain/models"
)

type Kind string

const (
	KindWelcome       Kind = "welcome"
	KindTaskAssigned  Kind = "task_assigned"
	KindTaskCompleted Kind = "task_completed"
	KindA3Assigned    Kind = "a3_assigned"
	KindA3Completed   Kind = "a3_completed"
)

// Message is one outbound email.
type Message struct {
	Kind    Kind
	To      string
	Subject string
	HTML    string
}

const layout = `<!DOCTYPE html>
<html>
<body style="font-family: 'Segoe UI', Tahoma, sans-serif; color: #333333; background-color: #f4f4f9;">
<div style="max-width: 600px; margin: 40px auto; background-color: #ffffff; border-radius: 8px;">
<div style="background-color: #4f46e5; color: #ffffff; padding: 24px 30px;"><h1 style="margin: 0; font-size: 22px;">{{.Header}}</h1></div>
<div style="padding: 30px;">{{template "content" .}}</div>
<div style="padding: 16px 30px; font-size: 12px; color: #9ca3af;">This is an automated message from the Task Management System.</div>
</div>
</body>
</html>`

var templates = map[Kind]*template.Template{
	KindWelcome: mustParse(`{{define "content"}}
<h2>Welcome Aboard, {{.Name}}!</h2>
<p>Your account has been created by the administrator.</p>
<p><strong>Email:</strong> {{.Email}}<br><strong>Password:</strong> {{.Password}}</p>
{{if .URL}}<p><a href="{{.URL}}">Login to Dashboard</a></p>{{end}}
<p><strong>Note:</strong> please change your password after your first login.</p>
{{end}}`),
	KindTaskAssigned: mustParse(`{{define "content"}}
<h2>New Task Assigned</h2>
<p>Hello {{.Name}}, you have been assigned a new task.</p>
<h3>{{.Title}}</h3>
<p><strong>Priority:</strong> {{.Priority}}<br><strong>Deadline:</strong> {{.Deadline}}</p>
<p><strong>Description:</strong> {{if .Description}}{{.Description}}{{else}}No description{{end}}</p>
{{if .URL}}<p><a href="{{.URL}}">View Task</a></p>{{end}}
{{end}}`),
	KindTaskCompleted: mustParse(`{{define "content"}}
<h2>Task Completed</h2>
<p>Hello {{.Name}}, {{.CompletedBy}} marked the task <strong>{{.Title}}</strong> as completed.</p>
<p><strong>Comment:</strong> {{.Comment}}</p>
{{if .URL}}<p><a href="{{.URL}}">View Task</a></p>{{end}}
{{end}}`),
	KindA3Assigned: mustParse(`{{define "content"}}
<h2>New A3 Item Assigned</h2>
<p>Hello {{.Name}}, you have been assigned an A3 item.</p>
<h3>{{.Title}}</h3>
<p><strong>Amount:</strong> {{.Amount}}</p>
{{if .URL}}<p><a href="{{.URL}}">View A3 Items</a></p>{{end}}
{{end}}`),
	KindA3Completed: mustParse(`{{define "content"}}
<h2>A3 Item Completed</h2>
<p>Hello {{.Name}}, {{.CompletedBy}} marked the A3 item <strong>{{.Title}}</strong> ({{.Amount}}) as completed.</p>
<p><strong>Comment:</strong> {{.Comment}}</p>
{{end}}`),
}

func mustParse(content string) *template.Template {
	return template.Must(template.Must(template.New("layout").Parse(layout)).Parse(content))
}

type view struct {
	Header      string
	Name        string
	Email       string
	Password    string
	Title       string
	Description string
	Priority    string
	Deadline    string
	Amount      string
	Comment     string
	CompletedBy string
	URL         string
}

func render(kind Kind, to, subject string, v view) (Message, error) {
	tmpl, ok := templates[kind]
	if !ok {
		return Message{}, fmt.Errorf("no template for %q", kind)
	}
	if v.Header == "" {
		v.Header = "Task Management System"
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", v); err != nil {
		return Message{}, fmt.Errorf("render %s: %w", kind, err)
	}
	return Message{Kind: kind, To: to, Subject: subject, HTML: buf.String()}, nil
}

// Templates builds messages; baseURL is the client origin used for links.
type Templates struct {
	baseURL string
}

func NewTemplates(baseURL string) Templates {
	return Templates{baseURL: baseURL}
}

func (t Templates) link(path string) string {
	if t.baseURL == "" {
		return ""
	}
	return t.baseURL + path
}

func (t Templates) Welcome(user models.User, password string) (Message, error) {
	return render(KindWelcome, user.Email, "Your Account Has Been Created", view{
		Name:     user.Name,
		Email:    user.Email,
		Password: password,
		URL:      t.link("/login"),
	})
}

func (t Templates) TaskAssigned(to models.UserRef, task models.Task) (Message, error) {
	return render(KindTaskAssigned, to.Email, "New Task Assigned: "+task.Title, view{
		Name:        to.Name,
		Title:       task.Title,
		Description: task.Description,
		Priority:    string(task.Priority),
		Deadline:    formatDate(task.Deadline),
		URL:         t.link("/"),
	})
}

func (t Templates) TaskCompleted(to models.User, task models.Task, by models.Identity, comment string) (Message, error) {
	return render(KindTaskCompleted, to.Email, "Task Completed: "+task.Title, view{
		Name:        to.Name,
		Title:       task.Title,
		Comment:     comment,
		CompletedBy: by.Name,
		URL:         t.link("/"),
	})
}

func (t Templates) A3Assigned(to models.UserRef, item models.A3Item) (Message, error) {
	return render(KindA3Assigned, to.Email, "New A3 Item Assigned: "+item.Name, view{
		Name:   to.Name,
		Title:  item.Name,
		Amount: item.Amount.StringFixed(2),
		URL:    t.link("/"),
	})
}

func (t Templates) A3Completed(to models.User, item models.A3Item, by models.Identity, comment string) (Message, error) {
	return render(KindA3Completed, to.Email, "A3 Item Completed: "+item.Name, view{
		Name:        to.Name,
		Title:       item.Name,
		Amount:      item.Amount.StringFixed(2),
		Comment:     comment,
		CompletedBy: by.Name,
	})
}

func formatDate(t time.Time) string {
	return t.Format("Jan 2, 2006")
}
