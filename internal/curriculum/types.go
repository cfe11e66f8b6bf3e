package curriculum

// Language is a programming language track of the catalog.
type Language struct {
	ID    string `yaml:"id" json:"id"`
	Name  string `yaml:"name" json:"name"`
	Emoji string `yaml:"emoji" json:"emoji"`
	Color string `yaml:"color" json:"color"`
	Desc  string `yaml:"desc" json:"desc"`
	Order int    `yaml:"order" json:"-"`
}

// LanguageSummary is a Language with its lesson count, as listed to clients.
type LanguageSummary struct {
	Language
	Lessons int `json:"lessons"`
}

// Lesson is a theory lesson with a runnable code sample.
type Lesson struct {
	ID       string `yaml:"id" json:"id"`
	Lang     string `yaml:"lang" json:"lang"`
	Title    string `yaml:"title" json:"title"`
	Level    string `yaml:"level" json:"level"`
	Emoji    string `yaml:"emoji" json:"emoji"`
	Duration string `yaml:"duration" json:"duration"`
	XP       int    `yaml:"xp" json:"xp"`
	Theory   string `yaml:"theory" json:"theory"`
	Code     string `yaml:"code" json:"code"`
	Tip      string `yaml:"tip" json:"tip"`
}

// Exercise is a fill-in-the-blanks coding exercise.
type Exercise struct {
	ID       string `yaml:"id" json:"id"`
	Lang     string `yaml:"lang" json:"lang"`
	Level    string `yaml:"level" json:"level"`
	Emoji    string `yaml:"emoji" json:"emoji"`
	XP       int    `yaml:"xp" json:"xp"`
	Title    string `yaml:"title" json:"title"`
	Desc     string `yaml:"desc" json:"desc"`
	Hint     string `yaml:"hint" json:"hint"`
	Starter  string `yaml:"starter" json:"starter"`
	Solution string `yaml:"solution" json:"solution"`
}

// Question is a multiple-choice quiz question. Answer and Explanation
// are never serialized; clients only see them through grading.
type Question struct {
	ID          string   `yaml:"id" json:"id"`
	Lang        string   `yaml:"lang" json:"lang"`
	Level       string   `yaml:"level" json:"level"`
	Text        string   `yaml:"q" json:"q"`
	Options     []string `yaml:"opts" json:"opts"`
	Answer      int      `yaml:"ans" json:"-"`
	Explanation string   `yaml:"exp" json:"-"`
}

// pack is the on-disk layout of one catalog YAML file.
type pack struct {
	Language  *Language  `yaml:"language"`
	Lessons   []Lesson   `yaml:"lessons"`
	Exercises []Exercise `yaml:"exercises"`
	Questions []Question `yaml:"questions"`
}
