// Package model はドメインモデルを定義する。
package model

import "time"

// PostInterval は自動投稿の名目上の実行間隔を表す。
// 実際の発火はワーカーまたは外部cronが行い、間隔はあくまで目安である。
type PostInterval string

const (
	// IntervalHourly は1時間ごとの投稿間隔。
	IntervalHourly PostInterval = "hourly"
	// IntervalEvery2Hours は2時間ごとの投稿間隔。
	IntervalEvery2Hours PostInterval = "every_2_hours"
	// IntervalEvery3Hours は3時間ごとの投稿間隔。
	IntervalEvery3Hours PostInterval = "every_3_hours"
	// IntervalEvery6Hours は6時間ごとの投稿間隔。
	IntervalEvery6Hours PostInterval = "every_6_hours"
	// IntervalDaily は1日ごとの投稿間隔。
	IntervalDaily PostInterval = "daily"
)

// ValidIntervals は受け付け可能な投稿間隔の一覧。
var ValidIntervals = []PostInterval{
	IntervalHourly,
	IntervalEvery2Hours,
	IntervalEvery3Hours,
	IntervalEvery6Hours,
	IntervalDaily,
}

// IsValid は投稿間隔が既知の値かどうかを返す。
func (i PostInterval) IsValid() bool {
	for _, v := range ValidIntervals {
		if i == v {
			return true
		}
	}
	return false
}

// Duration は投稿間隔をtime.Durationに変換する。
// 未知の値の場合は1時間を返す。
func (i PostInterval) Duration() time.Duration {
	switch i {
	case IntervalHourly:
		return time.Hour
	case IntervalEvery2Hours:
		return 2 * time.Hour
	case IntervalEvery3Hours:
		return 3 * time.Hour
	case IntervalEvery6Hours:
		return 6 * time.Hour
	case IntervalDaily:
		return 24 * time.Hour
	default:
		return time.Hour
	}
}

// CategoryID は記事カテゴリの識別子を表す。
// プロンプト選定とタグテンプレートの選択に使用される。
type CategoryID string

const (
	// CategoryEntertainment はエンタメカテゴリ。
	CategoryEntertainment CategoryID = "entertainment"
	// CategoryAnime はアニメカテゴリ。
	CategoryAnime CategoryID = "anime"
	// CategoryGame はゲームカテゴリ。
	CategoryGame CategoryID = "game"
	// CategoryMovie は映画カテゴリ。
	CategoryMovie CategoryID = "movie"
	// CategoryMusic は音楽カテゴリ。
	CategoryMusic CategoryID = "music"
	// CategoryTech はテクノロジーカテゴリ。
	CategoryTech CategoryID = "tech"
	// CategoryBeauty は美容カテゴリ。
	CategoryBeauty CategoryID = "beauty"
	// CategoryGourmet はグルメカテゴリ。
	CategoryGourmet CategoryID = "gourmet"
	// CategoryProductReview は商品レビューカテゴリ。
	// ローテーションには含まれず、商品レビュー生成でのみ使用される。
	CategoryProductReview CategoryID = "product_review"
)

// DefaultCategories はスケジュール未設定時のカテゴリローテーション。
// 挿入順がそのままローテーション順になる。
var DefaultCategories = []CategoryID{
	CategoryEntertainment,
	CategoryAnime,
	CategoryGame,
	CategoryMovie,
	CategoryMusic,
	CategoryTech,
	CategoryBeauty,
	CategoryGourmet,
}

// KnownCategories は受け付け可能なカテゴリの集合。
var KnownCategories = map[CategoryID]bool{
	CategoryEntertainment: true,
	CategoryAnime:         true,
	CategoryGame:          true,
	CategoryMovie:         true,
	CategoryMusic:         true,
	CategoryTech:          true,
	CategoryBeauty:        true,
	CategoryGourmet:       true,
	CategoryProductReview: true,
}

// Schedule は自動投稿のスケジュール設定と実行状態を表す。
// 永続化ストアにシングルトンとして1件だけ保存される。
type Schedule struct {
	// Enabled は自動投稿のマスタースイッチ。
	Enabled bool
	// Interval は名目上の投稿間隔。
	Interval PostInterval
	// Categories はカテゴリローテーションの順序付きリスト。
	Categories []CategoryID
	// CategoryIndex は次に投稿するカテゴリを指すカーソル。
	// len(Categories)を法として循環する。
	CategoryIndex int
	// MaxDailyPosts は1日あたりの投稿上限。
	MaxDailyPosts int
	// TodayPostCount は最後のリセット以降に記録された投稿数。
	TodayPostCount int
	// LastPostDate は最後の投稿日時。日付変更の判定に使用される。
	// 一度も投稿していない場合はnil。
	LastPostDate *time.Time
	// UpdatedAt は最終更新日時。
	UpdatedAt time.Time
}

// DefaultSchedule は未設定時のデフォルトスケジュールを返す。
func DefaultSchedule() *Schedule {
	categories := make([]CategoryID, len(DefaultCategories))
	copy(categories, DefaultCategories)
	return &Schedule{
		Enabled:        false,
		Interval:       IntervalHourly,
		Categories:     categories,
		CategoryIndex:  0,
		MaxDailyPosts:  10,
		TodayPostCount: 0,
		LastPostDate:   nil,
	}
}

// Clone はスケジュールのディープコピーを返す。
func (s *Schedule) Clone() *Schedule {
	c := *s
	c.Categories = make([]CategoryID, len(s.Categories))
	copy(c.Categories, s.Categories)
	if s.LastPostDate != nil {
		t := *s.LastPostDate
		c.LastPostDate = &t
	}
	return &c
}
