package seed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"leconn/internal/models"
	"leconn/internal/observability"
	"leconn/internal/repository"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Result counts what a run created.
type Result struct {
	Users   int
	Posts   int
	Replies int
	Likes   int
	Reposts int
	Follows int
}

// Seeder writes generated data through the repositories.
type Seeder struct {
	db      *gorm.DB
	users   repository.UserRepository
	posts   repository.PostRepository
	likes   repository.LikeRepository
	reposts repository.RepostRepository
	follows repository.FollowRepository

	bcryptCost int
}

func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{
		db:         db,
		users:      repository.NewUserRepository(db),
		posts:      repository.NewPostRepository(db),
		likes:      repository.NewLikeRepository(db),
		reposts:    repository.NewRepostRepository(db),
		follows:    repository.NewFollowRepository(db),
		bcryptCost: bcrypt.DefaultCost,
	}
}

// WithBcryptCost lowers hashing cost for tests.
func (s *Seeder) WithBcryptCost(cost int) *Seeder {
	s.bcryptCost = cost
	return s
}

// ClearAll removes every row the seeder can create, children first.
func (s *Seeder) ClearAll(ctx context.Context) error {
	observability.Logger.Info("clearing existing data")
	for _, model := range []interface{}{&models.Like{}, &models.Repost{}, &models.Follow{}, &models.Post{}, &models.User{}} {
		if err := s.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
			return fmt.Errorf("clear %T: %w", model, err)
		}
	}
	return nil
}

// Run generates the scenario.
func (s *Seeder) Run(ctx context.Context, sc Scenario) (*Result, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	seed := sc.RandomSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	faker := gofakeit.New(seed)
	res := &Result{}

	password := sc.Password
	if password == "" {
		password = DefaultPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	users, err := s.createUsers(ctx, faker, sc, string(hash))
	if err != nil {
		return nil, err
	}
	res.Users = len(users)
	observability.Logger.Info("seeded users", "count", res.Users)

	posts, err := s.createPosts(ctx, faker, sc, users, res)
	if err != nil {
		return nil, err
	}
	observability.Logger.Info("seeded posts", "posts", res.Posts, "replies", res.Replies)

	if err := s.createEngagement(ctx, faker, sc, users, posts, res); err != nil {
		return nil, err
	}
	observability.Logger.Info("seeded engagement", "likes", res.Likes, "reposts", res.Reposts, "follows", res.Follows)
	return res, nil
}

func (s *Seeder) createUsers(ctx context.Context, faker *gofakeit.Faker, sc Scenario, hash string) ([]*models.User, error) {
	users := make([]*models.User, 0, len(sc.Accounts)+sc.Users)
	for _, a := range sc.Accounts {
		name := a.Name
		if name == "" {
			name = a.Username
		}
		u := &models.User{
			Username: a.Username,
			Name:     name,
			Email:    strings.ToLower(a.Email),
			Password: hash,
			Bio:      a.Bio,
			IsAdmin:  a.IsAdmin,
		}
		if err := s.users.Create(ctx, u); err != nil {
			return nil, fmt.Errorf("create account %s: %w", a.Username, err)
		}
		users = append(users, u)
	}

	for i := 0; i < sc.Users; i++ {
		first := faker.FirstName()
		last := faker.LastName()
		handle := usernameFor(first, last, i)
		u := &models.User{
			Username: handle,
			Name:     first + " " + last,
			Email:    handle + "@example.com",
			Password: hash,
			Bio:      truncateRunes(faker.HipsterSentence(8), 160),
			Location: truncateRunes(faker.City(), 30),
			Image:    fmt.Sprintf("https://i.pravatar.cc/150?u=%s", handle),
		}
		if err := s.users.Create(ctx, u); err != nil {
			return nil, fmt.Errorf("create user %s: %w", handle, err)
		}
		users = append(users, u)
	}
	return users, nil
}

func (s *Seeder) createPosts(ctx context.Context, faker *gofakeit.Faker, sc Scenario, users []*models.User, res *Result) ([]*models.Post, error) {
	var posts []*models.Post
	for _, u := range users {
		for i := 0; i < sc.PostsPerUser; i++ {
			in := models.CreatePostInput{
				UserID:  u.ID,
				Content: postContent(faker),
			}
			if len(posts) > 0 && faker.Float64Range(0, 1) < sc.ReplyRatio {
				parent := posts[faker.IntRange(0, len(posts)-1)]
				in.ParentID = &parent.ID
			}
			post, err := s.posts.Create(ctx, in)
			if err != nil {
				return nil, fmt.Errorf("create post: %w", err)
			}
			posts = append(posts, post)
			if in.ParentID != nil {
				res.Replies++
			} else {
				res.Posts++
			}
		}
	}
	return posts, nil
}

func (s *Seeder) createEngagement(ctx context.Context, faker *gofakeit.Faker, sc Scenario, users []*models.User, posts []*models.Post, res *Result) error {
	if len(users) < 2 {
		return nil
	}
	for _, p := range posts {
		n := 0
		if sc.MaxLikes > 0 {
			n = faker.IntRange(0, min(sc.MaxLikes, len(users)))
		}
		for _, idx := range pick(faker, len(users), n) {
			state, err := s.likes.SetLiked(ctx, users[idx].ID, p.ID, true)
			if err != nil {
				return fmt.Errorf("like post %d: %w", p.ID, err)
			}
			if state.Changed {
				res.Likes++
			}
		}
		if faker.Float64Range(0, 1) < sc.RepostRatio {
			reposter := users[faker.IntRange(0, len(users)-1)]
			state, err := s.reposts.SetReposted(ctx, reposter.ID, p.ID, true)
			if err != nil {
				return fmt.Errorf("repost post %d: %w", p.ID, err)
			}
			if state.Changed {
				res.Reposts++
			}
		}
	}

	for i, u := range users {
		followed := 0
		for _, idx := range pick(faker, len(users), len(users)) {
			if followed >= sc.FollowsPerUser {
				break
			}
			if idx == i {
				continue
			}
			if _, err := s.follows.SetFollowing(ctx, u.ID, users[idx].ID, true); err != nil {
				return fmt.Errorf("follow: %w", err)
			}
			followed++
		}
		res.Follows += followed
	}
	return nil
}

// pick returns up to n distinct indexes below size.
func pick(faker *gofakeit.Faker, size, n int) []int {
	if n > size {
		n = size
	}
	idx := make([]int, size)
	for i := range idx {
		idx[i] = i
	}
	faker.ShuffleInts(idx)
	return idx[:n]
}

func usernameFor(first, last string, i int) string {
	base := strings.ToLower(first + "_" + last)
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return -1
		}
	}, base)
	if len(base) > 24 {
		base = base[:24]
	}
	return fmt.Sprintf("%s%d", base, i)
}

func postContent(faker *gofakeit.Faker) string {
	var content string
	switch faker.IntRange(0, 2) {
	case 0:
		content = faker.Sentence(faker.IntRange(4, 20))
	case 1:
		content = faker.HipsterSentence(faker.IntRange(4, 15))
	default:
		content = faker.Quote()
	}
	return truncateRunes(content, models.PostMaxLength)
}

func truncateRunes(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= n {
		return string(r)
	}
	return strings.TrimSpace(string(r[:n]))
}
