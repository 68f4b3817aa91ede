// Package extract turns free-text queries into structured extractions: an
// intent plus filter entities with a confidence score. The fast path is a
// deterministic pattern stage; a confidence-threshold chain falls back to the
// slow structured-output provider when patterns are not enough.
package extract
