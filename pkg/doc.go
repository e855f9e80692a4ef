// Package pkg provides the core libraries for lockbridge.
//
// # Overview
//
// lockbridge drives the uv resolver against a Python project and turns
// its lock output into distributable artifacts. The pkg directory is
// organized along that data flow:
//
//  1. [reqs] - Python dependency specifiers (parse, normalize, render)
//  2. [lock] - resolved package model and the persisted lock document
//  3. [uv] - resolver command construction, execution, and lock parsing
//  4. [export] - group filtering, deduplication, and output rendering
//  5. [project] - pyproject.toml configuration
//  6. [hashcache] - artifact hash resolution with memory and file layers
//
// # Architecture
//
// The typical data flow through lockbridge:
//
//	pyproject.toml
//	         ↓
//	    [project] package (configuration, group roots)
//	         ↓
//	    [uv] package (build + run `uv lock`, parse uv.lock)
//	         ↓
//	    [lock] package (metadata inheritance, lockbridge.lock)
//	         ↓
//	    [export] package (filter + render)
//	         ↓
//	    requirements.txt / pylock.toml output
//
// Supporting packages: [errors] defines the structured error codes used
// across commands and [buildinfo] carries ldflags-injected version data.
package pkg
