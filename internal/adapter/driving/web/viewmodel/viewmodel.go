// Package viewmodel defines presentation-ready structs for templ components.
// View models decouple template rendering from domain model types.
package viewmodel

// Shell is the page chrome shared by every page: navigation, the current
// user and the flash message of the previous request.
type Shell struct {
	Title     string
	UserName  string
	RoleLabel string
	Nav       []NavItem
	Flash     Flash
	CSRFToken string
	// StorefrontSlug is set on storefront customer pages, which get a
	// reduced chrome without the admin navigation.
	StorefrontSlug string
}

// NavItem is one entry of the section navigation.
type NavItem struct {
	Label  string
	Path   string
	Active bool
}

// Flash is a one-shot message carried across a redirect.
type Flash struct {
	Kind    string // "ok" or "error"
	Message string
}

// Option is one <option> of a select.
type Option struct {
	Value    string
	Label    string
	Selected bool
}

// AuthForm holds the values of a login or registration form.
type AuthForm struct {
	Title        string
	Action       string
	Register     bool
	Next         string
	Name         string
	Email        string
	StoreName    string
	WithStore    bool
	Error        string
	ErrorField   string
	AltLinkLabel string
	AltLinkPath  string
	ResetPath    string
}

// TransitionButton is one recommended state change offered for a lead.
type TransitionButton struct {
	To     string
	Label  string
	Icon   string
	Action string
}

// LeadRow is a lead in the pipeline list.
type LeadRow struct {
	ID             int64
	Name           string
	Email          string
	Phone          string
	State          string
	StateLabel     string
	Source         string
	EstimatedValue string
	Probability    int
	DetailPath     string
	Transitions    []TransitionButton
}

// StateCount is the number of leads in one state.
type StateCount struct {
	State string
	Label string
	Count int
}

// Metrics are the server-derived pipeline aggregates. Stale marks numbers
// that could not be refreshed after the last change.
type Metrics struct {
	TotalLeads    int
	PipelineValue string
	PurchaseValue string
	AvgFrequency  string
	ByState       []StateCount
	Stale         bool
}

// LeadList is the pipeline board page.
type LeadList struct {
	Rows         []LeadRow
	Total        int
	Page         int
	Pages        int
	Search       string
	StateOptions []Option
	PrevPath     string
	NextPath     string
	Metrics      Metrics
	Form         LeadForm
}

// LeadForm holds the values of the create and edit lead forms.
type LeadForm struct {
	Action         string
	Name           string
	Email          string
	Phone          string
	EstimatedValue string
	Probability    string
	Notes          string
	SourceOptions  []Option
	Error          string
	ErrorField     string
}

// Interaction is one entry of a lead's history.
type Interaction struct {
	TypeLabel       string
	DescriptionHTML string
	Value           string
	When            string
}

// ContactLink is a communication shortcut offered on a lead.
type ContactLink struct {
	Label  string
	Action string
}

// LeadDetail is the lead detail page.
type LeadDetail struct {
	Lead              LeadRow
	NotesHTML         string
	PurchaseCount     int
	PurchaseTotal     string
	PurchaseFrequency string
	UpdatedAt         string
	Interactions      []Interaction
	InteractionAction string
	InteractionTypes  []Option
	Contacts          []ContactLink
	Form              LeadForm
	Metrics           Metrics
}

// BackupRow is one backup in the list.
type BackupRow struct {
	ID            int64
	CreatedAt     string
	Status        string
	StatusLabel   string
	Size          string
	DownloadPath  string
	DeleteAction  string
	RestoreAction string
}

// BackupsPage is the backups page.
type BackupsPage struct {
	Rows          []BackupRow
	CreateAction  string
	UploadAction  string
	SelectedFile  string
	RestoreError  string
	RestoreNotice string
}

// OrderRow is one order.
type OrderRow struct {
	ID            int64
	Customer      string
	Total         string
	Status        string
	StatusLabel   string
	CreatedAt     string
	StatusAction  string
	StatusOptions []Option
}

// OrdersPage lists orders. Storefront pages show the customer's own orders
// without the status form.
type OrdersPage struct {
	Rows       []OrderRow
	Storefront bool
	LogoutPath string
}

// AuditRow is one audit log entry.
type AuditRow struct {
	When     string
	User     string
	Action   string
	Resource string
	IP       string
}

// AuditPage is the audit log page.
type AuditPage struct {
	Rows       []AuditRow
	User       string
	Action     string
	Page       int
	PrevPath   string
	NextPath   string
	ExportPath string
}

// PaymentMethod is one configured payment method.
type PaymentMethod struct {
	Name    string
	Kind    string
	Enabled bool
}

// Plan is one subscription plan card.
type Plan struct {
	ID             int64
	Name           string
	Price          string
	Interval       string
	Features       []string
	CheckoutAction string
}

// PricingPage is the public plan catalog.
type PricingPage struct {
	Plans    []Plan
	LoggedIn bool
	Error    string
}

// ProductRow is one storefront catalog product.
type ProductRow struct {
	Name     string
	SKU      string
	Category string
	Price    string
	Stock    int
	MinStock int
	LowStock bool
	Active   bool
}

// CategoryRow is one catalog category with its filter link.
type CategoryRow struct {
	Name     string
	Products int
	Path     string
	Active   bool
}

// CatalogPage is the storefront product list.
type CatalogPage struct {
	Rows            []ProductRow
	Categories      []CategoryRow
	CategoryOptions []Option
	Search          string
	LowStock        int
}

// StoreConfigForm holds the storefront configuration form.
type StoreConfigForm struct {
	Action       string
	Name         string
	Slug         string
	Description  string
	ContactEmail string
	Phone        string
	Address      string
	Published    bool
}

// StoreStyleForm holds the storefront theme form.
type StoreStyleForm struct {
	Action          string
	PrimaryColor    string
	SecondaryColor  string
	BackgroundColor string
	Font            string
	LayoutOptions   []Option
}

// SettingsPage is the storefront settings page.
type SettingsPage struct {
	Config StoreConfigForm
	Style  StoreStyleForm
	// PublicPath links the customer login of the published storefront.
	PublicPath string
}

// StatusTotalRow is the order count and amount of one order status.
type StatusTotalRow struct {
	Label  string
	Orders int
	Total  string
}

// DailySalesRow is one day of the sales report.
type DailySalesRow struct {
	Day     string
	Orders  int
	Revenue string
}

// SalesReportPage is the sales report with its date range form.
type SalesReportPage struct {
	From          string
	To            string
	Orders        int
	Revenue       string
	AverageTicket string
	ByStatus      []StatusTotalRow
	Daily         []DailySalesRow
	ExportPath    string
}

// StockAlert is one low-stock product on the dashboard.
type StockAlert struct {
	Name     string
	Stock    int
	MinStock int
}

// Dashboard is the landing page of a logged-in operator.
type Dashboard struct {
	UserName    string
	Sections    []NavItem
	Alerts      []StockAlert
	AlertsError string
	CheckedAt   string
	Metrics     *Metrics
	// Storefronts links the storefronts with an open customer session.
	Storefronts []NavItem
}

// ErrorPage is shown when a page cannot be rendered.
type ErrorPage struct {
	Status  int
	Message string
	Back    string
}
