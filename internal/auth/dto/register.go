package dto

// FileInput references a file already spooled to local disk by the transport
// layer. A nil *FileInput means the caller sent no file, which is different
// from an upload that failed.
type FileInput struct {
	Path string
}

type RegisterInput struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`

	Avatar     *FileInput `json:"-"`
	CoverImage *FileInput `json:"-"`
}
