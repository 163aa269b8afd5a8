// Package analysis holds the source-text heuristics runpad applies before a
// program runs: which string literals are input prompts, whether a program
// is likely to read stdin, and which Java class holds the entry point.
//
// None of this is parsing. Every function is a shallow lexical scan over the
// raw source and will misjudge programs that hide calls in comments,
// strings, nested classes or escaped literals. Downstream behavior (prompt
// order, first-match entry class selection) depends on these exact rules,
// so tighten them only together with their callers.
package analysis
