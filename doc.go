// Package insurancerag provides hybrid question-answering retrieval over
// regulatory and technical insurance document corpora, such as Medicare
// manuals and coverage determinations or state auto-insurance
// regulations.
//
// Given a natural-language query and a populated vector collection whose
// chunks carry rich metadata, the retriever returns a ranked short list
// of chunks suited for grounded answer generation. A single
// nearest-neighbor search underperforms on this material: domain
// vocabulary is acronym-heavy (LCD, PIP, UM/UIM, HCPCS), answers are
// fragmented across chapters and jurisdictions, and different source
// kinds use different registers. The retriever compensates with query
// classification, domain-configurable expansion, multi-variant
// source-filtered vector search, BM25 keyword search, reciprocal-rank
// fusion, topic-cluster anchoring, and deduplication.
//
// # Quick Start
//
//	store, err := chromem.New(chromem.Config{}, embedFn)
//	if err != nil {
//		log.Fatal(err)
//	}
//	r := retrieval.New(store, embedFn, domain.Default, config.Config{
//		DefaultDomain:  "medicare",
//		EmbeddingModel: "all-MiniLM-L6-v2",
//	})
//	chunks, err := r.Retrieve(ctx, "Is hyperbaric oxygen therapy covered?", 8, nil, "medicare")
//
// Domain profiles register themselves at init time; import the ones you
// need:
//
//	import (
//		_ "github.com/csmangum/insurance-rag/pkg/domain/auto"
//		_ "github.com/csmangum/insurance-rag/pkg/domain/medicare"
//	)
//
// # Packages
//
//   - pkg/domain: profile registry and the two shipped profiles
//   - pkg/query: query classification and expansion
//   - pkg/topic: topic-cluster matching and summary anchors
//   - pkg/vectorstore: vector-store contract and the chromem adapter
//   - pkg/keyword: in-memory BM25 index
//   - pkg/fuse: hybrid fusion, diversification, topic injection
//   - pkg/retrieval: the public facade
package insurancerag
