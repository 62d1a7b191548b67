// Package meta defines the declarative descriptors the registrar consumes:
// the recipe manifest a feedstock repository ships, and the bakery table
// describing the compute and storage providers recipes can be baked on.
package meta

// Storage protocols a target or flow-storage descriptor may declare.
const (
	// ProtocolS3 marks an object-store target authenticated with a
	// key/secret credential pair.
	ProtocolS3 = "s3"

	// ProtocolABFS marks a blob target authenticated with a single
	// connection string.
	ProtocolABFS = "abfs"
)

// Cluster types a bakery may declare.
const (
	// ClusterTypeFargate is an ephemeral serverless worker pool.
	ClusterTypeFargate = "fargate"

	// ClusterTypeKubernetes is a container-orchestrator worker pool.
	ClusterTypeKubernetes = "kubernetes"
)

// Manifest is a feedstock's recipe manifest.
type Manifest struct {
	Title       string `yaml:"title" validate:"required"`
	Description string `yaml:"description"`

	// NotebookVersion and RecipesVersion are the manifest's copy of the
	// toolchain versions; they must agree with the bakery cluster and
	// the runtime before anything is registered.
	NotebookVersion string `yaml:"notebook_version" validate:"required"`
	RecipesVersion  string `yaml:"recipes_version" validate:"required"`

	// Recipes is the ordered list of recipe entries to register.
	Recipes []RecipeEntry `yaml:"recipes" validate:"required,min=1,dive"`

	// Bakery selects the provider and target this manifest bakes on.
	Bakery RecipeBakery `yaml:"bakery" validate:"required"`

	Provenance  *Provenance  `yaml:"provenance,omitempty"`
	Maintainers []Maintainer `yaml:"maintainers,omitempty" validate:"omitempty,dive"`
}

// RecipeEntry references either a single recipe object (id + object) or a
// family of them (family_object). Exactly one of the two forms is set.
type RecipeEntry struct {
	ID           string `yaml:"id,omitempty"`
	Object       string `yaml:"object,omitempty"`
	FamilyObject string `yaml:"family_object,omitempty"`
}

// IsFamily reports whether the entry references a recipe family.
func (e RecipeEntry) IsFamily() bool { return e.FamilyObject != "" }

// RecipeBakery is the manifest's bakery selection.
type RecipeBakery struct {
	ID        string     `yaml:"id" validate:"required"`
	Target    string     `yaml:"target" validate:"required"`
	Resources *Resources `yaml:"resources,omitempty"`
}

// Resources is the optional per-recipe worker resource hint, in the
// cluster's native units.
type Resources struct {
	CPU    int `yaml:"cpu" validate:"gt=0"`
	Memory int `yaml:"memory" validate:"gt=0"`
}

// Provenance describes where the source data comes from.
type Provenance struct {
	Providers []Provider `yaml:"providers" validate:"dive"`
	License   string     `yaml:"license"`
}

// Provider is one upstream data provider.
type Provider struct {
	Name        string   `yaml:"name" validate:"required"`
	Description string   `yaml:"description"`
	Roles       []string `yaml:"roles" validate:"dive,oneof=producer licensor"`
	URL         string   `yaml:"url"`
}

// Maintainer is a manifest maintainer.
type Maintainer struct {
	Name   string `yaml:"name" validate:"required"`
	ORCID  string `yaml:"orcid,omitempty"`
	GitHub string `yaml:"github,omitempty"`
}

// BakeryTable maps bakery ids to their descriptors.
type BakeryTable map[string]Bakery

// Bakery is one compute+storage provider configuration.
type Bakery struct {
	Cluster Cluster           `yaml:"cluster" validate:"required"`
	Targets map[string]Target `yaml:"targets" validate:"required,min=1"`
}

// Target is a named storage target of a bakery.
type Target struct {
	// Region is an optional locality hint.
	Region string `yaml:"region,omitempty"`

	// Private holds the credentialed storage descriptor.
	Private StorageSpec `yaml:"private" validate:"required"`
}

// StorageSpec is a provider-specific storage descriptor: a protocol tag plus
// references into the secrets table.
type StorageSpec struct {
	Protocol       string          `yaml:"protocol" validate:"required"`
	StorageOptions *StorageOptions `yaml:"storage_options,omitempty"`
}

// StorageOptions names the secrets holding the storage credentials. For the
// object-store protocol both Key and Secret are set; for connection-string
// protocols only Secret is.
type StorageOptions struct {
	Key      string `yaml:"key,omitempty"`
	Secret   string `yaml:"secret,omitempty"`
	Endpoint string `yaml:"endpoint,omitempty"`
}

// Cluster is a bakery's compute-pool definition.
type Cluster struct {
	Type        string `yaml:"type" validate:"required"`
	WorkerImage string `yaml:"worker_image" validate:"required"`

	ClusterOptions ClusterOptions `yaml:"cluster_options,omitempty"`

	// FlowStorage is the bucket or container flow definitions are
	// persisted in, with its protocol and credential references.
	FlowStorage         string          `yaml:"flow_storage" validate:"required"`
	FlowStorageProtocol string          `yaml:"flow_storage_protocol" validate:"required"`
	FlowStorageOptions  *StorageOptions `yaml:"flow_storage_options,omitempty"`

	MaxWorkers int `yaml:"max_workers" validate:"gt=0"`

	// The cluster's copy of the toolchain versions.
	NotebookVersion string `yaml:"notebook_version" validate:"required"`
	RecipesVersion  string `yaml:"recipes_version" validate:"required"`
	EngineVersion   string `yaml:"engine_version" validate:"required"`
}

// ClusterOptions carries the provider-specific cluster plumbing for
// serverless pools.
type ClusterOptions struct {
	VPC              string   `yaml:"vpc,omitempty"`
	ClusterARN       string   `yaml:"cluster_arn,omitempty"`
	TaskRoleARN      string   `yaml:"task_role_arn,omitempty"`
	ExecutionRoleARN string   `yaml:"execution_role_arn,omitempty"`
	SecurityGroups   []string `yaml:"security_groups,omitempty"`
}
