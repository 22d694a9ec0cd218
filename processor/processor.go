// Package processor provides content processors that split a document into
// translatable text nodes and write translations back.
package processor

import "github.com/aayush997726/kisan"

// ContentProcessor is an alias to the main package interface.
type ContentProcessor = kisan.ContentProcessor

// TextNode is an alias to the main package type.
type TextNode = kisan.TextNode
