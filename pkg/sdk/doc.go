// Package vecvogue serves apparel recommendations in-process from a catalog
// index built by vecvogue-index, without running the HTTP API.
//
//	client, err := vecvogue.New(
//	    vecvogue.WithCatalog("data/catalog.index", "data/meta.json"),
//	    vecvogue.WithEmbedder(myEmbedder),
//	    vecvogue.WithReranker(myScorer),
//	)
//	resp, err := client.Recommend(ctx, vecvogue.Query{Text: "linen dress for women", Rerank: true})
//
// The embedder must produce vectors in the same space the index was built with.
package vecvogue
