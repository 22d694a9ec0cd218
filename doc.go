// Package kisan provides the translation layer of the Kisan farmer dashboard.
//
// Dashboard text is translated lazily from English to Hindi through a
// generative-language provider (Gemini, OpenAI-compatible, etc.), cached in
// memory and persisted as a single time-bounded snapshot so a restart does not
// pay for the same translations twice. Every failure degrades to the original
// English text.
//
// Basic usage:
//
//	import (
//	    "context"
//	    "github.com/aayush997726/kisan"
//	    "github.com/aayush997726/kisan/cache"
//	    "github.com/aayush997726/kisan/provider"
//	)
//
//	func main() {
//	    ctx := context.Background()
//	    p, err := provider.NewGeminiProvider(ctx, provider.GeminiConfig{
//	        APIKey: os.Getenv("GEMINI_API_KEY"),
//	    })
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    store, err := cache.OpenBoltStore("kisan.db", cache.BoltOptions{})
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    defer store.Close()
//
//	    t := kisan.NewTranslator(p, kisan.WithStore(store))
//
//	    fmt.Println(t.TranslateOne(ctx, "Cotton", kisan.LangHindi)) // कपास
//	}
package kisan
