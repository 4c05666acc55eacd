// Package lexicon holds the multi-language profanity word lists, the
// obfuscation patterns, and the negative-sentiment heuristic words used by the
// scanner.
//
// A Lexicon is built once at startup (Default or New) and is immutable
// afterwards, so one instance can be shared by every worker without locking.
package lexicon
