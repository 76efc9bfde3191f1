// Package config holds the small set of compiler-wide constants, the way
// funvibe-funxy/internal/config/constants.go holds Funxy's source extension
// and builtin-name constants.
package config

// SourceFileExt is the canonical Trident source file extension.
const SourceFileExt = ".tri"

// StdlibRootEnvVar names the environment variable used to locate the
// standard library root (spec.md §4.1 resolution order, step 1).
const StdlibRootEnvVar = "TRIDENT_STDLIB"

// DefaultStdlibDirName is the sibling directory probed next to the
// compiler binary (step 2) and under the working directory (step 3).
const DefaultStdlibDirName = "stdlib"

// StoreRootEnvVar overrides the definition store's on-disk root directory.
const StoreRootEnvVar = "TRIDENT_STORE"

// DefaultStoreRootSuffix is appended to $HOME to form the default store
// root: $HOME/.trident/codebase.
const DefaultStoreRootSuffix = ".trident/codebase"

// Version is the current Trident toolchain version.
var Version = "0.1.0"

// DefaultCfgFlags mirrors CompileOptions' documented default cfg-flag set.
var DefaultCfgFlags = []string{"debug"}

// AllowedIntrinsicPrefixes lists the module-name prefixes that may declare
// #[intrinsic] functions (spec.md §4.2).
var AllowedIntrinsicPrefixes = []string{"vm.", "std.", "os.", "ext."}
