package models

// Page is a protected resource: Slug is the stable policy key, FilePath the
// served path inside the static directory.
type Page struct {
	ID       int
	Slug     string
	FilePath string
}

// PageAccess is one cell of the role×page authorization matrix.
type PageAccess struct {
	RoleID    int
	PageID    int
	HasAccess bool
}
