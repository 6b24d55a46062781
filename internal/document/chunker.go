package document

import "strings"

// SentenceDelimiter is the literal separator used to split text into
// sentence units. Splitting is purely lexical: abbreviations, quotes and
// trailing punctuation without a space are not treated specially.
const SentenceDelimiter = ". "

// DefaultChunkSize is the target chunk length in characters.
const DefaultChunkSize = 1000

// ChunkText splits text into an ordered list of chunks, each built from
// consecutive sentence units and bounded by chunkSize as a soft target.
//
// The pass is greedy: sentences are appended to an accumulator until adding
// the next one would push it past chunkSize, at which point the accumulator
// is flushed and the new sentence starts the next chunk. A single sentence
// longer than chunkSize is never split; it occupies a chunk on its own and
// that chunk exceeds the target. Chunks are trimmed of surrounding
// whitespace and empty chunks are never emitted.
//
// The function is total and stateless: any input (including "") is valid,
// no error is possible, and concurrent calls need no coordination.
func ChunkText(text string, chunkSize int) []string {
	if text == "" {
		return nil
	}

	sentences := strings.Split(text, SentenceDelimiter)

	var chunks []string
	var acc strings.Builder

	for _, sentence := range sentences {
		if acc.Len()+len(sentence) > chunkSize {
			// Flush the in-progress chunk. When the accumulator is empty the
			// sentence alone already exceeds the target; it still becomes the
			// accumulator content and is flushed on a later overflow or at
			// the end of the pass.
			if chunk := strings.TrimSpace(acc.String()); chunk != "" {
				chunks = append(chunks, chunk)
			}
			acc.Reset()
			acc.WriteString(sentence)
		} else {
			if acc.Len() > 0 {
				acc.WriteString(SentenceDelimiter)
			}
			acc.WriteString(sentence)
		}
	}

	if chunk := strings.TrimSpace(acc.String()); chunk != "" {
		chunks = append(chunks, chunk)
	}

	return chunks
}
