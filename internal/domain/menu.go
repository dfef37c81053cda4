package domain

// PermissionWildcard grants every permission check. A principal whose
// permission set contains it sees the full menu and passes every
// authorization check.
const PermissionWildcard = "*"

// MenuRow is one flat row from the menu table, before tree assembly. Label
// is already resolved for the requested language, falling back to the i18n
// key when no translation exists, which is why row sets are cached per
// language.
type MenuRow struct {
	ID             string
	Code           string
	I18nKey        string
	Label          string
	URL            string
	PermissionCode string // empty means visible to every authenticated user
	ParentID       string // empty means root node
	Position       int
	Active         bool
}

// MenuNode is one node in the permission-filtered navigation tree returned
// to clients.
type MenuNode struct {
	ID       string      `json:"id"`
	Code     string      `json:"code"`
	I18nKey  string      `json:"i18n_key"`
	Label    string      `json:"label"`
	URL      string      `json:"url,omitempty"`
	Position int         `json:"position"`
	Children []*MenuNode `json:"children,omitempty"`
}
