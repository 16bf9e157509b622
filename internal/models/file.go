package models

// RemoteFile элемент папки во внешнем хранилище.
type RemoteFile struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	MimeType    string `json:"mimeType"`
	WebViewLink string `json:"webViewLink,omitempty"`
}

// FileMetadata метаданные файла, нужные для отдачи его содержимого.
type FileMetadata struct {
	ID       string
	Name     string
	MimeType string
	Size     int64 // 0, если хранилище не сообщило размер
}
