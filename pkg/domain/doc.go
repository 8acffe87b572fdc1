// Package domain defines the value types shared by the rule catalog, the
// inference engine, the knowledge base and the session archive.
package domain
