package fixtures

// Email is a message shown in the email app
type Email struct {
	ID      string `json:"id" yaml:"id"`
	From    string `json:"from,omitempty" yaml:"from,omitempty"`
	To      string `json:"to,omitempty" yaml:"to,omitempty"`
	Subject string `json:"subject" yaml:"subject"`
	Preview string `json:"preview" yaml:"preview"`
	Time    string `json:"time" yaml:"time"`
	Content string `json:"content" yaml:"content"`
}

// File is an entry in the file explorer
type File struct {
	Name  string `json:"name" yaml:"name"`
	Type  string `json:"type" yaml:"type"`
	Icon  string `json:"icon" yaml:"icon"`
	Color string `json:"color" yaml:"color"`
}

// Document is an entry in the documents app
type Document struct {
	Name     string `json:"name" yaml:"name"`
	Type     string `json:"type" yaml:"type"`
	Modified string `json:"modified" yaml:"modified"`
}

// Folder is a folder created by the user inside a documents folder
type Folder struct {
	Name string `json:"name" yaml:"name"`
}

// Email folders
const (
	FolderInbox  = "inbox"
	FolderSent   = "sent"
	FolderDrafts = "drafts"
)

// Explorer tabs
const (
	TabWorkServer    = "work-server"
	TabPersonalSpace = "personal-space"
)

// Documents folders
const (
	DocsRecent   = "recent"
	DocsWork     = "work"
	DocsPersonal = "personal"
)

func seedEmails() map[string][]Email {
	return map[string][]Email{
		FolderInbox: {
			{
				ID:      "1",
				From:    "John Doe",
				Subject: "Project Update: Q2 Results",
				Preview: "Here are the latest results for our Q2 project...",
				Time:    "10:30 AM",
				Content: "Dear Team,\n\nI hope this email finds you well. Here are the latest results for our Q2 project:\n\n- Revenue increased by 15%\n- Customer satisfaction improved\n- New features launched successfully\n\nBest regards,\nJohn",
			},
			{
				ID:      "2",
				From:    "Sarah Johnson",
				Subject: "Meeting Reminder",
				Preview: "Don't forget about our meeting tomorrow at 2 PM...",
				Time:    "Yesterday",
				Content: "Hi Alex,\n\nJust a friendly reminder about our meeting tomorrow at 2 PM. Please prepare the quarterly report.\n\nThanks,\nSarah",
			},
		},
		FolderSent: {
			{
				ID:      "3",
				To:      "finance@company.com",
				Subject: "Budget Request",
				Preview: "Please review the attached budget proposal...",
				Time:    "2 days ago",
				Content: "Hello Finance Team,\n\nPlease review the attached budget proposal for the upcoming quarter.\n\nRegards,\nAlex",
			},
		},
		FolderDrafts: {},
	}
}

func seedFiles() map[string][]File {
	return map[string][]File{
		TabWorkServer: {
			{Name: "Project_Plan.docx", Type: "word", Icon: "fa-file-word", Color: "blue"},
			{Name: "Budget_2024.xlsx", Type: "excel", Icon: "fa-file-excel", Color: "green"},
		},
		TabPersonalSpace: {
			{Name: "Personal_Notes.txt", Type: "text", Icon: "fa-file-lines", Color: "gray"},
			{Name: "Photos.zip", Type: "archive", Icon: "fa-file-zipper", Color: "purple"},
		},
	}
}

func seedDocuments() map[string][]Document {
	return map[string][]Document{
		DocsRecent: {
			{Name: "Project_Report.docx", Type: "word", Modified: "2 days ago"},
			{Name: "Budget_2024.xlsx", Type: "excel", Modified: "1 week ago"},
			{Name: "Contract.pdf", Type: "pdf", Modified: "3 weeks ago"},
			{Name: "Presentation.pptx", Type: "powerpoint", Modified: "1 month ago"},
		},
		DocsWork: {
			{Name: "Work_Report.docx", Type: "word", Modified: "1 day ago"},
			{Name: "Meeting_Notes.txt", Type: "text", Modified: "3 days ago"},
		},
		DocsPersonal: {
			{Name: "Personal_Notes.txt", Type: "text", Modified: "1 week ago"},
			{Name: "Resume.pdf", Type: "pdf", Modified: "2 weeks ago"},
		},
	}
}

// EmailKey identifies emails inside a dataset
func EmailKey(e Email) string { return e.ID }

// FileKey identifies files inside a dataset
func FileKey(f File) string { return f.Name }

// DocumentKey identifies documents inside a dataset
func DocumentKey(d Document) string { return d.Name }

// FolderKey identifies folders inside a dataset
func FolderKey(f Folder) string { return f.Name }
