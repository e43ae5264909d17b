// Package textutil turns free-form labels into filesystem-safe names.
package textutil
