package conversation

import (
	"fmt"
	"sync"
	"testing"

	"github.com/strongdm/turnstream/internal/llm"
)

func TestConversation_AppendHelpers(t *testing.T) {
	c := New(llm.System("be brief"))
	c.AppendUserInput("hi")
	c.AppendUserInputWithName("bob", "hello")
	c.AppendExampleAssistantOutput("ok")
	c.AppendFunctionMessage("clock", "12:00")

	want := []llm.Role{llm.RoleSystem, llm.RoleUser, llm.RoleUser, llm.RoleAssistant, llm.RoleFunction}
	msgs := c.Messages()
	if len(msgs) != len(want) {
		t.Fatalf("len: got %d want %d", len(msgs), len(want))
	}
	for i, r := range want {
		if msgs[i].Role != r {
			t.Fatalf("msg %d role: got %q want %q", i, msgs[i].Role, r)
		}
	}
	if msgs[2].Name != "bob" || msgs[4].Name != "clock" {
		t.Fatalf("names: %+v", msgs)
	}
}

func TestConversation_ToolMessageLinksCallID(t *testing.T) {
	c := New()
	c.Append(llm.Message{Role: llm.RoleAssistant, ToolCall: &llm.ToolCall{ID: "call_9", Name: "search"}})
	c.AppendToolMessage("search", "results")
	c.AppendToolMessage("other", "x")
	msgs := c.Messages()
	if msgs[1].ToolCallID != "call_9" || msgs[1].Role != llm.RoleTool {
		t.Fatalf("tool message: %+v", msgs[1])
	}
	if msgs[2].ToolCallID != "" {
		t.Fatalf("unmatched tool message got id %q", msgs[2].ToolCallID)
	}
}

func TestConversation_MessagesIsACopy(t *testing.T) {
	seed := []llm.Message{llm.User("a")}
	c := New(seed...)
	seed[0].Content = "mutated"
	msgs := c.Messages()
	msgs[0].Content = "changed"
	if got := c.Messages()[0].Content; got != "a" {
		t.Fatalf("got %q want %q", got, "a")
	}
}

func TestConversation_ConcurrentAppends(t *testing.T) {
	c := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c.AppendUserInput(fmt.Sprint(i))
		}(i)
	}
	wg.Wait()
	if c.Len() != 50 {
		t.Fatalf("len: got %d want 50", c.Len())
	}
}

func TestConversation_TruncateRollsBackInput(t *testing.T) {
	c := New(llm.System("be brief"))
	n := c.Len()
	c.AppendUserInput("first")
	c.Truncate(n)
	c.AppendUserInput("second")
	msgs := c.Messages()
	if len(msgs) != 2 || msgs[1].Content != "second" {
		t.Fatalf("got %+v", msgs)
	}
	c.Truncate(10)
	c.Truncate(-1)
	if c.Len() != 2 {
		t.Fatalf("out of range truncate changed history: %d", c.Len())
	}
}
