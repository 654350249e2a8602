// Package fontassembler declares the external glyph-range concatenator
// contract the Resource Resolver's fonts:// scheme delegates to (spec.md
// §4.2, §6). The concatenator itself — a .pbf font-range tool — is out of
// scope per spec.md §1; this module only depends on its interface.
package fontassembler

import "context"

// Assembler supplies combined glyph PBFs for a font stack and Unicode
// range, restricted to a caller-supplied allow-list of font names.
type Assembler interface {
	Assemble(ctx context.Context, fontstack string, codepointRange string, allowedFonts []string) ([]byte, error)
}
