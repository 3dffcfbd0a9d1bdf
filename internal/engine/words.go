package engine

// Words is the fallback list for rounds started without a word.
var Words = []string{
	"cat", "dog", "house", "car", "tree", "flower", "book", "phone", "computer", "chair",
	"table", "mountain", "ocean", "sun", "moon", "star", "fish", "bird", "butterfly", "rainbow",
	"pizza", "cake", "apple", "banana", "guitar", "piano", "elephant", "lion", "tiger", "bear",
	"castle", "bridge", "airplane", "boat", "bicycle", "umbrella", "balloon", "snowman", "volcano", "island",
}
