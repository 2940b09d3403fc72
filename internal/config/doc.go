// Package config defines the format-agnostic modifier catalogue model for
// the application, along with the core interfaces (Loader, Converter) for
// loading and interpreting modifier manifests from various sources.
//
// The `config.Model` is the single source of truth for the `registry` and
// `evaluator` packages. Concrete implementations of the interfaces, such as
// for HCL, are provided in separate packages.
package config
