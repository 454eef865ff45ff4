package pgplan

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Definition is one declared schema object as read from a manifest or SQL directory.
type Definition struct {
	// Name is the unique object name, optionally schema-qualified ("billing.accounts").
	Name string

	// Ordinal is the authoring position. Zero means "position in the input".
	Ordinal int

	// Type is the kind of object ("table", "view", ...). Empty means table.
	Type string

	// Body is the SQL passed through to the target unchanged.
	Body string

	// Source is the file the definition was read from, for diagnostics.
	Source string

	// DependsOn lists the objects this one needs.
	DependsOn []DependencySpec
}

// DependencySpec is a declared dependency on another object.
type DependencySpec struct {
	// Object is the name of the object depended upon.
	Object string

	// Structural marks a dependency that can never be deferred.
	// Unflagged dependencies are referential.
	Structural bool

	// Constraint describes the foreign key that enforces a referential dependency.
	Constraint ConstraintSpec
}

// ConstraintSpec describes the constraint a referential edge materializes as.
type ConstraintSpec struct {
	Name       string
	Columns    []string
	References []string
	OnDelete   string
	OnUpdate   string

	// SQL, when set, is a complete statement applied verbatim instead of a
	// generated ALTER TABLE ... ADD CONSTRAINT.
	SQL string
}

// Clone returns a copy that shares no slices with c.
func (c ConstraintSpec) Clone() ConstraintSpec {
	c.Columns = cloneStrings(c.Columns)
	c.References = cloneStrings(c.References)
	return c
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string{}, in...)
}

// IsDefined reports whether the spec carries enough to apply the constraint.
func (c ConstraintSpec) IsDefined() bool {
	return strings.TrimSpace(c.SQL) != "" || len(c.Columns) > 0
}

// ObjectType classifies a schema object. It only influences existence probes.
type ObjectType string

const (
	ObjectTable     ObjectType = "table"
	ObjectView      ObjectType = "view"
	ObjectSequence  ObjectType = "sequence"
	ObjectFunction  ObjectType = "function"
	ObjectUserType  ObjectType = "type"
	ObjectSchema    ObjectType = "schema"
	ObjectExtension ObjectType = "extension"
)

// ParseObjectType normalizes a declared type. Empty input yields ObjectTable.
func ParseObjectType(s string) (ObjectType, error) {
	switch t := ObjectType(strings.ToLower(strings.TrimSpace(s))); t {
	case "":
		return ObjectTable, nil
	case ObjectTable, ObjectView, ObjectSequence, ObjectFunction, ObjectUserType, ObjectSchema, ObjectExtension:
		return t, nil
	case "materialized_view", "matview":
		return ObjectView, nil
	case "procedure":
		return ObjectFunction, nil
	default:
		return "", fmt.Errorf("unknown object type %q", s)
	}
}

// DependencyKind classifies a dependency edge.
// The zero value is Referential.
type DependencyKind int

const (
	Referential DependencyKind = iota // Deferrable, e.g. a foreign key
	Structural                        // Required for the object's own definition; never deferred
)

// String returns the upper-case kind name.
func (k DependencyKind) String() string {
	switch k {
	case Referential:
		return "REFERENTIAL"
	case Structural:
		return "STRUCTURAL"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// MarshalText renders the kind for JSON and YAML reports.
func (k DependencyKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// SchemaObject is a named unit of structure to create in the target.
type SchemaObject struct {
	Name         string
	Ordinal      int
	Type         ObjectType
	Body         string
	Source       string
	Dependencies []DependencyEdge
}

// Clone returns a deep copy of o. A nil object clones to nil.
func (o *SchemaObject) Clone() *SchemaObject {
	if o == nil {
		return nil
	}
	c := *o
	c.Dependencies = cloneEdges(o.Dependencies)
	return &c
}

// Table returns the unqualified part of the object name.
func (o *SchemaObject) Table() string {
	return unqualified(o.Name)
}

// DependencyEdge states that From depends on To: To must exist before From.
type DependencyEdge struct {
	From       string
	To         string
	Kind       DependencyKind
	Constraint ConstraintSpec
}

// Clone returns a copy of e whose constraint shares no slices with e.
func (e DependencyEdge) Clone() DependencyEdge {
	e.Constraint = e.Constraint.Clone()
	return e
}

func cloneEdges(in []DependencyEdge) []DependencyEdge {
	if in == nil {
		return nil
	}
	out := make([]DependencyEdge, len(in))
	for i, e := range in {
		out[i] = e.Clone()
	}
	return out
}

// String renders the edge as "from -> to".
func (e DependencyEdge) String() string {
	return e.From + " -> " + e.To
}

// Key identifies an edge within a catalog. Two declarations between the same
// pair of objects are told apart by constraint name.
func (e DependencyEdge) Key() string {
	return e.From + "\x00" + e.To + "\x00" + e.Kind.String() + "\x00" + e.ConstraintName()
}

// ConstraintName returns the declared constraint name, or PostgreSQL's default
// foreign key name (<table>_<columns>_fkey) when only columns are declared.
// Returns "" when neither is available.
func (e DependencyEdge) ConstraintName() string {
	if e.Constraint.Name != "" {
		return e.Constraint.Name
	}
	if len(e.Constraint.Columns) == 0 {
		return ""
	}
	name := unqualified(e.From) + "_" + strings.Join(e.Constraint.Columns, "_") + "_fkey"
	return truncateIdentifier(name)
}

// truncateIdentifier cuts name to MaxIdentifierLength bytes without splitting
// a multibyte character, as PostgreSQL does for over-long identifiers.
func truncateIdentifier(name string) string {
	if len(name) <= MaxIdentifierLength {
		return name
	}
	cut := MaxIdentifierLength
	for cut > 0 && !utf8.RuneStart(name[cut]) {
		cut--
	}
	return name[:cut]
}

func unqualified(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i+1:]
	}
	return name
}

// Catalog is the read-only set of declared schema objects.
type Catalog interface {
	// Objects returns every object ordered by ordinal.
	Objects() []*SchemaObject

	// Lookup finds an object by name.
	Lookup(name string) (*SchemaObject, bool)

	// Len returns the number of objects.
	Len() int
}

// DeploymentConfig contains all parameters needed for a plan, deploy or validate operation.
type DeploymentConfig struct {
	// SourcePath is a manifest file (.yaml, .yml, .hcl) or a directory of annotated .sql files.
	SourcePath string

	// ConnectionString is the PostgreSQL connection string (URI or ADO.NET format).
	// Not required for dry runs.
	ConnectionString string

	// DryRun validates the plan without touching the target.
	DryRun bool

	// ExpectFingerprint, when set, must equal the computed plan fingerprint.
	ExpectFingerprint string

	// JournalPath is an optional SQLite file that records each execution report.
	JournalPath string

	// Timeout is the global timeout for the entire operation
	Timeout time.Duration

	// Verbose enables detailed logging
	Verbose bool

	// AuthMethod indicates the authentication mechanism to use
	AuthMethod AuthMethod

	// AWSRegion is required for AuthMethodAWSIAM.
	AWSRegion string

	// GoogleInstance ("project:region:instance") is required for AuthMethodGoogleIAM.
	GoogleInstance string

	// Azure Entra ID authentication parameters (used when AuthMethod is AuthMethodAzureEntraID)
	AzureTenantID     string
	AzureClientID     string
	AzureClientSecret string
}

// Validate checks if the DeploymentConfig has all required fields and valid values.
// requireConnection is false for operations that never reach the database.
func (c *DeploymentConfig) Validate(requireConnection bool) error {
	var errs []error

	if c.SourcePath == "" {
		errs = append(errs, fmt.Errorf("SourcePath is required: %w", ErrInvalidConfig))
	}

	if requireConnection && c.ConnectionString == "" {
		errs = append(errs, fmt.Errorf("ConnectionString is required: %w", ErrInvalidConfig))
	}

	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout cannot be negative: %w", ErrInvalidConfig))
	}

	if !c.AuthMethod.IsValid() {
		errs = append(errs, fmt.Errorf("auth method %s: %w", c.AuthMethod, ErrUnsupportedAuthMethod))
	}

	return errors.Join(errs...)
}

// ConnectionConfig represents parsed connection parameters.
type ConnectionConfig struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
	SSLMode  string

	// AuthMethod indicates the authentication mechanism to use
	AuthMethod AuthMethod

	// Additional connection parameters
	AppName          string
	ConnectTimeout   time.Duration
	AdditionalParams map[string]string

	// AWS IAM authentication
	AWSRegion string

	// Google Cloud SQL instance connection name ("project:region:instance")
	GoogleInstance string

	// Azure Entra ID authentication parameters (used when AuthMethod is AuthMethodAzureEntraID).
	// If all three are provided, Service Principal authentication is used.
	// If none are provided, DefaultAzureCredential chain is used.
	AzureTenantID     string
	AzureClientID     string
	AzureClientSecret string
}

// AuthMethod represents the type of authentication to use.
type AuthMethod int

const (
	AuthMethodStandard     AuthMethod = iota // Username/Password
	AuthMethodCertificate                    // mTLS
	AuthMethodAWSIAM                         // AWS IAM Database Authentication
	AuthMethodGoogleIAM                      // Google Cloud SQL IAM
	AuthMethodAzureEntraID                   // Azure Active Directory (Entra ID)
)

// String returns a human-readable string representation of the AuthMethod.
func (a AuthMethod) String() string {
	switch a {
	case AuthMethodStandard:
		return "Standard"
	case AuthMethodCertificate:
		return "Certificate"
	case AuthMethodAWSIAM:
		return "AWS IAM"
	case AuthMethodGoogleIAM:
		return "Google IAM"
	case AuthMethodAzureEntraID:
		return "Azure Entra ID"
	default:
		return fmt.Sprintf("Unknown(%d)", a)
	}
}

// IsValid returns true if the AuthMethod is a valid, defined value.
func (a AuthMethod) IsValid() bool {
	return a >= AuthMethodStandard && a <= AuthMethodAzureEntraID
}

// ParseAuthMethod maps the CLI and config spelling to an AuthMethod.
func ParseAuthMethod(s string) (AuthMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "standard", "password":
		return AuthMethodStandard, nil
	case "cert", "certificate":
		return AuthMethodCertificate, nil
	case "aws", "aws-iam":
		return AuthMethodAWSIAM, nil
	case "google", "gcp", "google-iam":
		return AuthMethodGoogleIAM, nil
	case "azure", "entra", "azure-entra-id":
		return AuthMethodAzureEntraID, nil
	default:
		return AuthMethodStandard, fmt.Errorf("%q: %w", s, ErrUnsupportedAuthMethod)
	}
}
