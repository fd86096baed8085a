package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"socialgraph/pkg/response"
)

// 并发关注同一个用户，每个用户重复请求一次，结束后粉丝数必须等于用户数
var (
	baseURL    = flag.String("url", "http://localhost:8080/api/v1", "API base URL")
	totalUsers = flag.Int("users", 200, "number of concurrent followers")
	repeat     = flag.Int("repeat", 2, "follow requests per user")
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

type account struct {
	ID       string
	Username string
	Token    string
}

type envelope struct {
	Success bool            `json:"success"`
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func main() {
	flag.Parse()
	runID := time.Now().Unix()

	// 1. 准备账号
	target, err := register(fmt.Sprintf("target_%d", runID))
	if err != nil {
		fmt.Printf("创建目标用户失败: %v\n", err)
		os.Exit(1)
	}

	followers := make([]account, *totalUsers)
	for i := range followers {
		a, err := register(fmt.Sprintf("fan_%d_%d", runID, i))
		if err != nil {
			fmt.Printf("创建用户 %d 失败: %v\n", i, err)
			os.Exit(1)
		}
		followers[i] = a
	}

	fmt.Printf("开始压测：%d 个用户并发关注 %s，每人请求 %d 次...\n", *totalUsers, target.Username, *repeat)

	// 2. 并发关注
	var (
		wg        sync.WaitGroup
		created   int64
		conflicts int64
		failed    int64
	)
	start := time.Now()
	for _, f := range followers {
		for r := 0; r < *repeat; r++ {
			wg.Add(1)
			go func(a account) {
				defer wg.Done()
				status, code := follow(a, target.ID)
				switch {
				case status == http.StatusCreated:
					atomic.AddInt64(&created, 1)
				case code == response.ErrRelationExists:
					atomic.AddInt64(&conflicts, 1)
				default:
					atomic.AddInt64(&failed, 1)
				}
			}(f)
		}
	}
	wg.Wait()
	duration := time.Since(start)
	total := *totalUsers * *repeat

	// 3. 校验计数
	count, err := followersCount(target)
	if err != nil {
		fmt.Printf("读取粉丝数失败: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("--------------------------------------------------")
	fmt.Printf("压测结束，耗时: %v\n", duration)
	fmt.Printf("总请求数: %d\n", total)
	fmt.Printf("QPS: %.2f\n", float64(total)/duration.Seconds())
	fmt.Printf("关注成功: %d (预期: %d)\n", created, *totalUsers)
	fmt.Printf("重复关注: %d\n", conflicts)
	fmt.Printf("请求失败: %d\n", failed)
	fmt.Printf("粉丝数: %d (预期: %d)\n", count, *totalUsers)
	fmt.Println("--------------------------------------------------")

	if count != int64(*totalUsers) || created != int64(*totalUsers) {
		os.Exit(1)
	}
}

func call(method, path, token string, payload interface{}) (int, *envelope, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, *baseURL+path, body)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, &env, nil
}

func register(username string) (account, error) {
	status, env, err := call(http.MethodPost, "/auth/register", "", map[string]string{
		"username": username,
		"name":     username,
		"email":    username + "@stress.local",
		"password": "stress-password-123",
	})
	if err != nil {
		return account{}, err
	}
	if status != http.StatusCreated {
		return account{}, fmt.Errorf("status %d: %s", status, env.Message)
	}

	var data struct {
		User struct {
			ID string `json:"id"`
		} `json:"user"`
		Token string `json:"token"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return account{}, err
	}
	return account{ID: data.User.ID, Username: username, Token: data.Token}, nil
}

// follow 返回 HTTP 状态码和业务码
func follow(a account, targetID string) (int, int) {
	status, env, err := call(http.MethodPost, "/users/"+targetID+"/follow", a.Token, nil)
	if err != nil || env == nil {
		return status, -1
	}
	return status, env.Code
}

func followersCount(target account) (int64, error) {
	status, env, err := call(http.MethodGet, "/profiles/"+target.Username, target.Token, nil)
	if err != nil {
		return 0, err
	}
	if status != http.StatusOK {
		return 0, fmt.Errorf("status %d: %s", status, env.Message)
	}
	var profile struct {
		FollowersCount int64 `json:"followersCount"`
	}
	if err := json.Unmarshal(env.Data, &profile); err != nil {
		return 0, err
	}
	return profile.FollowersCount, nil
}
