package container

import "fmt"

// queueNode 单向链表中的节点
type queueNode[T any] struct {
	next  *queueNode[T] // 后继节点
	Value T             // 节点值
}

// Queue 先进先出队列
// 功能：基于单向链表实现的泛型FIFO队列，入队出队均为O(1)
// 说明：出队顺序严格等于入队顺序，除出队外不会重排元素
type Queue[T any] struct {
	ID         string        // 队列标识符
	head, tail *queueNode[T] // 头尾节点指针
	length     int           // 队列长度
}

// String 获取队列的字符串表示
func (q *Queue[T]) String() string {
	return fmt.Sprintf("Queue{ID:%v, Len:%d}", q.ID, q.length)
}

// Len 获取队列长度
// 功能：返回队列中的元素数量，O(1)
// 返回：队列长度
func (q *Queue[T]) Len() int {
	return q.length
}

// Enqueue 向队列尾部加入元素
// 功能：在尾节点之后追加新节点
// 参数：value-要加入的元素
func (q *Queue[T]) Enqueue(value T) {
	add := &queueNode[T]{Value: value}
	if q.tail == nil {
		q.head = add
	} else {
		q.tail.next = add
	}
	q.tail = add
	q.length++
}

// Dequeue 从队列头部取出元素
// 功能：移除并返回最早加入的元素
// 返回：元素值，队列为空时ok为false（空队列出队是正常情况而非错误）
func (q *Queue[T]) Dequeue() (value T, ok bool) {
	if q.head == nil {
		return value, false
	}
	node := q.head
	q.head = node.next
	if q.head == nil {
		q.tail = nil
	}
	node.next = nil
	q.length--
	return node.Value, true
}

// Peek 查看队首元素
// 功能：返回最早加入的元素但不移除
// 返回：元素值，队列为空时ok为false
func (q *Queue[T]) Peek() (value T, ok bool) {
	if q.head == nil {
		return value, false
	}
	return q.head.Value, true
}

// Values 获取队列中所有元素
// 功能：按出队顺序返回所有元素的副本
// 返回：值数组
// 说明：仅用于状态快照输出，不应用于控制逻辑
func (q *Queue[T]) Values() []T {
	values := make([]T, q.length)
	for i, node := 0, q.head; node != nil; i, node = i+1, node.next {
		values[i] = node.Value
	}
	return values
}
