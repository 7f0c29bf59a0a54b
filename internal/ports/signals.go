package ports

import "context"

// StockTwitsPost is one trending/top message from the StockTwits gatherer.
type StockTwitsPost struct {
	Symbol       string
	Body         string
	RawSentiment float64 // [-1, 1]; StockTwits' own bullish/bearish tag mapped to a score
}

// StockTwitsProvider polls StockTwits trending symbols and top posts.
type StockTwitsProvider interface {
	Trending(ctx context.Context) ([]StockTwitsPost, error)
}

// RedditPost is one post from a subreddit listing.
type RedditPost struct {
	Title     string
	Body      string
	Subreddit string
	Upvotes   int
	Comments  int
	Flair     string
}

// RedditProvider polls a subreddit's hot/top listing.
type RedditProvider interface {
	TopPosts(ctx context.Context, subreddit string) ([]RedditPost, error)
}

// CryptoSnapshotSource is the crypto-market counterpart to the equity
// broker snapshot, used by the signal gatherer to turn price moves into a
// Signal the same way social posts are turned into one.
type CryptoSnapshotSource interface {
	TopMovers(ctx context.Context) ([]CryptoMover, error)
}

// CryptoMover is one crypto symbol's recent price action.
type CryptoMover struct {
	Symbol         string
	PriceChangePct float64
	Price          float64
	Volume24h      float64
}
