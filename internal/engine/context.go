package engine

import "time"

// Client 客户记录的只读视图
type Client struct {
	ID         string
	Attributes map[string]string
}

// Attribute 读取客户属性,不存在时 ok 为 false
func (c *Client) Attribute(name string) (string, bool) {
	if c == nil || c.Attributes == nil {
		return "", false
	}
	v, ok := c.Attributes[name]
	return v, ok
}

// Actor 当前操作用户
type Actor struct {
	ID   string
	Name string
}

// Office 所属公证处
type Office struct {
	ID         string
	Name       string
	Phone      string
	Address    string
	NotaryName string
}

// RuntimeContext 单次合同生成的运行时上下文,不持久化
type RuntimeContext struct {
	Clients map[Role]*Client
	User    Actor
	Office  Office
	Manual  map[string]string
	// Now 本次生成的时间基准,为零时由首次 Compile 填入,同一上下文多次编译结果一致
	Now time.Time
}

// NewRuntimeContext 创建运行时上下文,Now 取当前时间
func NewRuntimeContext(user Actor, office Office) *RuntimeContext {
	return &RuntimeContext{
		Clients: make(map[Role]*Client),
		User:    user,
		Office:  office,
		Manual:  make(map[string]string),
		Now:     time.Now(),
	}
}

// WithClient 为角色指定客户
func (rc *RuntimeContext) WithClient(role Role, client *Client) *RuntimeContext {
	if rc.Clients == nil {
		rc.Clients = make(map[Role]*Client)
	}
	rc.Clients[role] = client
	return rc
}

// WithManual 设置手工录入值
func (rc *RuntimeContext) WithManual(values map[string]string) *RuntimeContext {
	if rc.Manual == nil {
		rc.Manual = make(map[string]string, len(values))
	}
	for k, v := range values {
		rc.Manual[k] = v
	}
	return rc
}

func (rc *RuntimeContext) client(role Role) *Client {
	if rc == nil || rc.Clients == nil {
		return nil
	}
	return rc.Clients[role]
}

func (rc *RuntimeContext) manual(key string) (string, bool) {
	if rc == nil || rc.Manual == nil {
		return "", false
	}
	v, ok := rc.Manual[key]
	return v, ok
}
