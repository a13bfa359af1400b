// internal/pkg/zookeeper/election.go
package zookeeper

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-zookeeper/zk"
)

const electionRoot = "/orderflow/elections" // 所有选举节点的根路径

// Conn 封装了 ZooKeeper 连接。
type Conn struct {
	*zk.Conn
}

// Connect 建立到 ZooKeeper 集群的连接。
func Connect(servers []string) (*Conn, error) {
	conn, _, err := zk.Connect(servers, 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to zookeeper: %w", err)
	}
	return &Conn{Conn: conn}, nil
}

// Election 实现基于临时顺序节点的 leader 选举。
// 部署多个 order-service 实例时，只有 leader 实例消费后台工作队列，
// 避免同一笔延迟订单被重复编排。
type Election struct {
	conn   *Conn
	path   string // 选举路径，例如 /orderflow/elections/order-worker
	myNode string // Campaign 成功创建的节点
}

// NewElection 创建一个选举实例并确保父节点存在。
func NewElection(conn *Conn, name string) (*Election, error) {
	path := electionRoot + "/" + name
	for _, p := range parentPaths(path) {
		if _, err := conn.Create(p, []byte(""), 0, zk.WorldACL(zk.PermAll)); err != nil && err != zk.ErrNodeExists {
			return nil, fmt.Errorf("failed to create election path %s: %w", p, err)
		}
	}
	return &Election{conn: conn, path: path}, nil
}

// Campaign 阻塞直到本实例成为 leader，或 ctx 被取消。
func (e *Election) Campaign(ctx context.Context) error {
	// 1. 创建临时顺序节点，格式为 <path>/candidate-<seq>
	nodePath, err := e.conn.CreateProtectedEphemeralSequential(e.path+"/candidate-", []byte(""), zk.WorldACL(zk.PermAll))
	if err != nil {
		return fmt.Errorf("failed to create candidate node: %w", err)
	}
	e.myNode = nodePath

	for {
		// 2. 列出所有候选节点并排序
		children, _, err := e.conn.Children(e.path)
		if err != nil {
			return fmt.Errorf("failed to list candidates: %w", err)
		}
		sort.Strings(children)

		// 3. 自己是最小节点即当选
		myName := strings.TrimPrefix(e.myNode, e.path+"/")
		if myName == children[0] {
			return nil
		}

		// 4. 否则监听排在自己前一位的节点
		prev := -1
		for i, child := range children {
			if child == myName {
				prev = i - 1
				break
			}
		}
		if prev < 0 {
			return errors.New("candidate node missing from children, session may have expired")
		}

		_, _, eventChan, err := e.conn.ExistsW(e.path + "/" + children[prev])
		if err != nil {
			// 前一个节点恰好在检查时被删除，回到循环重新竞争
			if err == zk.ErrNoNode {
				continue
			}
			return fmt.Errorf("failed to watch previous candidate: %w", err)
		}

		select {
		case event := <-eventChan:
			if event.Type == zk.EventNodeDeleted {
				continue
			}
		case <-ctx.Done():
			// 放弃竞选，删掉自己的候选节点
			_ = e.Resign()
			return ctx.Err()
		}
	}
}

// Resign 放弃 leader 身份（或退出竞选队列）。
func (e *Election) Resign() error {
	if e.myNode == "" {
		return nil
	}
	err := e.conn.Delete(e.myNode, -1)
	if err != nil && err != zk.ErrNoNode {
		return fmt.Errorf("failed to delete candidate node: %w", err)
	}
	e.myNode = ""
	return nil
}

// parentPaths 返回 path 的所有前缀路径（不含根 "/"），按层级从浅到深。
func parentPaths(path string) []string {
	var out []string
	parts := strings.Split(strings.TrimPrefix(path, "/"), "/")
	cur := ""
	for _, p := range parts {
		cur = cur + "/" + p
		out = append(out, cur)
	}
	return out
}
