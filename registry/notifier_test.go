package registry

import "testing"

func TestChangeNotifier_CoalescesPendingSignals(t *testing.T) {
	t.Parallel()
	var cn ChangeNotifier
	ch := cn.Subscriber()

	cn.Notify()
	cn.Notify()
	cn.Notify()

	if got := len(ch); got != 1 {
		t.Fatalf("expected a single pending signal, got %d", got)
	}
	<-ch
	if got := len(ch); got != 0 {
		t.Fatalf("expected drained channel, got %d", got)
	}
}

func TestChangeNotifier_FansOut(t *testing.T) {
	t.Parallel()
	var cn ChangeNotifier
	a := cn.Subscriber()
	b := cn.Subscriber()

	cn.Notify()

	if len(a) != 1 || len(b) != 1 {
		t.Fatalf("expected both subscribers signalled, got a=%d b=%d", len(a), len(b))
	}
}

func TestChangeNotifier_CloseIdempotent(t *testing.T) {
	t.Parallel()
	var cn ChangeNotifier
	cn.Subscriber()
	cn.Close()
	cn.Close()
	cn.Notify()
}
