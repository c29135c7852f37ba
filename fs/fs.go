package appfs

import "embed"

// FS holds the SQL migrations (one directory per engine), the email templates
// and the list of common passwords refused at signup.
//
//go:embed migrations all:templates passwords
var FS embed.FS
