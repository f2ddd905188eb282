package main

// mongo module
//
// Copyright (c) 2023 - Valentin Kuznetsov <vkuznet AT gmail dot com>
//
// References : https://gist.github.com/boj/5412538
//              https://gist.github.com/border/3489566

import (
	"log"
	"sync"

	"gopkg.in/mgo.v2"
	"gopkg.in/mgo.v2/bson"
)

// MongoConnection defines connection to MongoDB
type MongoConnection struct {
	mu      sync.Mutex
	Session *mgo.Session
}

// Connect provides connection to MongoDB
func (m *MongoConnection) Connect() (*mgo.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var err error
	if m.Session == nil {
		m.Session, err = mgo.Dial(Config.DBURI)
		if err != nil {
			return nil, err
		}
		m.Session.SetMode(mgo.Strong, true)
	}
	return m.Session.Clone(), nil
}

// global object which holds MongoDB connection
var _Mongo MongoConnection

// MongoUpsert records into MongoDB
func MongoUpsert(dbname, collname string, records []Record) error {
	s, err := _Mongo.Connect()
	if err != nil {
		log.Println("Unable to connect to MongoDB", err)
		return err
	}
	defer s.Close()
	c := s.DB(dbname).C(collname)
	for _, rec := range records {
		if rec.Model == "" {
			log.Printf("no model, record %v\n", rec)
			continue
		}
		spec := recordSpec(rec.Model, rec.Version)
		if _, err := c.Upsert(spec, &rec); err != nil {
			log.Printf("Fail to insert record %v, error %v\n", rec, err)
			return err
		}
	}
	return nil
}

// MongoGet records from MongoDB
func MongoGet(dbname, collname string, spec bson.M, idx, limit int) ([]Record, error) {
	out := []Record{}
	s, err := _Mongo.Connect()
	if err != nil {
		log.Println("Unable to connect to MongoDB", err)
		return out, err
	}
	defer s.Close()
	c := s.DB(dbname).C(collname)
	if limit > 0 {
		err = c.Find(spec).Skip(idx).Limit(limit).All(&out)
	} else {
		err = c.Find(spec).Skip(idx).All(&out)
	}
	if err != nil {
		log.Printf("Unable to get records, error %v\n", err)
	}
	return out, err
}

// MongoRemove records from MongoDB
func MongoRemove(dbname, collname string, spec bson.M) error {
	s, err := _Mongo.Connect()
	if err != nil {
		log.Println("Unable to connect to MongoDB", err)
		return err
	}
	defer s.Close()
	c := s.DB(dbname).C(collname)
	_, err = c.RemoveAll(spec)
	if err != nil && err != mgo.ErrNotFound {
		log.Printf("Unable to remove records, spec %v, error %v\n", spec, err)
	}
	return err
}
