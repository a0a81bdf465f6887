package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	userModel "vidhub/internal/domain/user/model"
	videoModel "vidhub/internal/domain/video/model"
	"vidhub/internal/pkg/config"
	"vidhub/internal/pkg/identity"
	"vidhub/pkg/database"
	"vidhub/pkg/utils"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

var httpClient *http.Client

func init() {
	// 优化 HTTP Client 配置
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConns = 2000
	t.MaxIdleConnsPerHost = 2000
	t.MaxConnsPerHost = 2000
	httpClient = &http.Client{
		Transport: t,
		Timeout:   10 * time.Second,
	}
}

type fan struct {
	user  userModel.User
	token string
}

// 并发压测点赞与订阅，结束后核对派生计数
func main() {
	baseURL := flag.String("base", "http://localhost:8080", "server base url")
	totalUsers := flag.Int("users", 500, "concurrent users")
	flag.Parse()

	_ = godotenv.Load()
	config.LoadConfig()
	db, err := database.InitDatabase(config.GlobalConfig.Database, false)
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}

	// 1. 准备频道、视频与用户
	channel, video := seedChannel(db)
	fans := seedFans(db, *totalUsers)
	fmt.Printf("开始压测：%d 个用户并发订阅频道 %s 并对视频 %s 点赞/点踩...\n", len(fans), channel.ID, video.ID)

	// 2. 并发请求：重复订阅、先赞后踩（偶数用户）
	var wg sync.WaitGroup
	var mu sync.Mutex
	failures := 0
	start := time.Now()

	for i, f := range fans {
		wg.Add(1)
		go func(i int, f fan) {
			defer wg.Done()
			ok := call(http.MethodPost, *baseURL+"/channels/"+channel.ID+"/subscription", f.token, nil)
			ok = call(http.MethodPost, *baseURL+"/channels/"+channel.ID+"/subscription", f.token, nil) && ok
			ok = call(http.MethodPost, *baseURL+"/videos/"+video.ID+"/reaction", f.token, map[string]bool{"isLike": true}) && ok
			if i%2 == 0 {
				ok = call(http.MethodPost, *baseURL+"/videos/"+video.ID+"/reaction", f.token, map[string]bool{"isLike": false}) && ok
			}
			if !ok {
				mu.Lock()
				failures++
				mu.Unlock()
			}
		}(i, f)
	}
	wg.Wait()
	duration := time.Since(start)

	// 3. 核对计数
	var stored videoModel.Video
	if err := db.First(&stored, "id = ?", video.ID).Error; err != nil {
		log.Fatalf("reload video: %v", err)
	}
	var owner userModel.User
	if err := db.First(&owner, "id = ?", channel.ID).Error; err != nil {
		log.Fatalf("reload channel: %v", err)
	}
	wantDislikes := int64((len(fans) + 1) / 2)
	wantLikes := int64(len(fans)) - wantDislikes

	fmt.Println("--------------------------------------------------")
	fmt.Printf("压测结束，耗时: %v，失败用户: %d\n", duration, failures)
	fmt.Printf("订阅数: %d (预期: %d)\n", owner.SubscribersCount, len(fans))
	fmt.Printf("点赞数: %d (预期: %d)\n", stored.LikesCount, wantLikes)
	fmt.Printf("点踩数: %d (预期: %d)\n", stored.DislikesCount, wantDislikes)
	fmt.Println("--------------------------------------------------")

	if failures == 0 && (owner.SubscribersCount != int64(len(fans)) ||
		stored.LikesCount != wantLikes || stored.DislikesCount != wantDislikes) {
		log.Fatal("derived counters diverged")
	}
}

func seedChannel(db *gorm.DB) (*userModel.User, *videoModel.Video) {
	channel := &userModel.User{
		Name:  "stress-channel",
		Email: "stress-" + uuid.New().String()[:8] + "@example.com",
		Role:  identity.RoleViewer,
	}
	if err := db.Create(channel).Error; err != nil {
		log.Fatalf("create channel: %v", err)
	}
	video := &videoModel.Video{
		UserID:   channel.ID,
		Title:    "stress video",
		VideoURL: "https://cdn.example.com/stress.mp4",
		Category: videoModel.DefaultCategory,
		Status:   videoModel.StatusPublished,
	}
	if err := db.Create(video).Error; err != nil {
		log.Fatalf("create video: %v", err)
	}
	return channel, video
}

func seedFans(db *gorm.DB, n int) []fan {
	fans := make([]fan, 0, n)
	users := make([]userModel.User, n)
	for i := range users {
		users[i] = userModel.User{
			Name:  fmt.Sprintf("fan-%d", i),
			Email: fmt.Sprintf("fan-%d-%s@example.com", i, uuid.New().String()[:8]),
			Role:  identity.RoleViewer,
		}
	}
	if err := db.CreateInBatches(users, 500).Error; err != nil {
		log.Fatalf("create fans: %v", err)
	}
	for _, u := range users {
		token, _, err := utils.GenerateToken(u.ID, string(u.Role))
		if err != nil {
			log.Fatalf("sign token: %v", err)
		}
		fans = append(fans, fan{user: u, token: token})
	}
	return fans
}

func call(method, url, token string, payload interface{}) bool {
	var body io.Reader
	if payload != nil {
		b, _ := json.Marshal(payload)
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		return false
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	// 检查业务状态码
	var result struct {
		Code int `json:"code"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return false
	}
	return resp.StatusCode == http.StatusOK && result.Code == 0
}
